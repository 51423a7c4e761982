package deployments

import "fibertrack/models"

// ChecklistStatus derives a task's status from its three steps. All
// steps done means Completed; any progress means InProgress; otherwise
// the task stays Scheduled. Failed is never derived here, it is set
// explicitly through the fail endpoint.
func ChecklistStatus(step1, step2, step3 bool) models.TaskStatus {
	switch {
	case step1 && step2 && step3:
		return models.TaskCompleted
	case step1 || step2 || step3:
		return models.TaskInProgress
	default:
		return models.TaskScheduled
	}
}

// terminal reports whether a task can no longer change.
func terminal(status models.TaskStatus) bool {
	return status == models.TaskCompleted || status == models.TaskFailed
}
