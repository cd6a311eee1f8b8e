package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"shopfloor-service/internal/config"
	"shopfloor-service/internal/modal"
	"shopfloor-service/internal/workflows"
)

// Starts one assignment workflow against a running api process and waits for
// the outcome. Conflicts are decided through POST /workflows/{id}/decision.
func main() {
	var (
		req  modal.AssignmentRequest
		cfg  config.Config
		wait time.Duration
	)
	flag.StringVar(&req.TaskID, "task", "", "task id")
	flag.StringVar(&req.OperatorID, "operator", "E1", "operator id")
	flag.StringVar(&req.Date, "date", time.Now().Format("2006-01-02"), "planned date (YYYY-MM-DD)")
	config.BindTemporal(flag.CommandLine, &cfg)
	flag.DurationVar(&wait, "wait", 10*time.Minute, "how long to wait for a decision")
	flag.Parse()

	if req.TaskID == "" {
		log.Fatal("-task is required")
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	defer c.Close()

	opts := client.StartWorkflowOptions{
		ID:                                       workflows.AssignmentWorkflowID(req.TaskID),
		TaskQueue:                                workflows.TaskQueue,
		WorkflowExecutionTimeout:                 workflows.DecisionTimeout + time.Hour,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
		WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	we, err := c.ExecuteWorkflow(ctx, opts, workflows.ResolveAssignment, req)
	if err != nil {
		log.Fatalf("unable to execute workflow: %v", err)
	}

	log.Printf("started workflow: WorkflowID=%s RunID=%s\n", we.GetID(), we.GetRunID())

	ctx2, cancel2 := context.WithTimeout(context.Background(), wait)
	defer cancel2()

	var result string
	if err := we.Get(ctx2, &result); err != nil {
		log.Fatalf("unable to get workflow result: %v", err)
	}
	log.Printf("workflow result: %s\n", result)
}
