// internal/workers/triage/jobs/testing.go
package jobs

import (
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
)

// NewTestJob builds an activated job carrying variables, for handler tests.
func NewTestJob(taskType string, key int64, variables interface{}) entities.Job {
	var raw string
	switch v := variables.(type) {
	case string:
		raw = v
	default:
		data, _ := json.Marshal(v)
		raw = string(data)
	}

	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                      key,
		Type:                     taskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "incident-triage",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_" + taskType,
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Variables:                raw,
	}}
}
