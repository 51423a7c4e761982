package deployments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/audit"
	"fibertrack/infrastructure/rbac"
	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

// CreateTask schedules a deployment for a Pending customer and assigns
// it to a technician.
func CreateTask(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor models.User, in CreateTaskInput) (models.DeploymentTask, error) {
	if in.CustomerID <= 0 || in.UserID <= 0 {
		return models.DeploymentTask{}, apperr.InvalidState("customer_id and user_id are required")
	}
	if in.ScheduledDate.IsZero() {
		return models.DeploymentTask{}, apperr.InvalidState("scheduled_date is required")
	}

	var created models.DeploymentTask
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var customer models.Customer
		if err := tx.NewSelect().Model(&customer).Where("id = ?", in.CustomerID).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("customer %d not found", in.CustomerID)
			}
			return err
		}
		if customer.Status != models.CustomerPending {
			return apperr.InvalidState("customer %d is not pending deployment", in.CustomerID)
		}

		var technician models.User
		if err := tx.NewSelect().Model(&technician).Where("id = ?", in.UserID).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("user %d not found", in.UserID)
			}
			return err
		}
		if technician.Role != rbac.RoleTechnician {
			return apperr.InvalidState("user %d is not a technician", in.UserID)
		}

		// Failed tasks do not block rescheduling.
		exists, err := tx.NewSelect().
			Model((*models.DeploymentTask)(nil)).
			Where("customer_id = ?", in.CustomerID).
			Where("status != ?", models.TaskFailed).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("customer %d already has a deployment task", in.CustomerID)
		}

		created = models.DeploymentTask{
			CustomerID:    in.CustomerID,
			UserID:        in.UserID,
			Status:        models.TaskScheduled,
			ScheduledDate: in.ScheduledDate,
			Notes:         in.Notes,
		}
		if _, err := tx.NewInsert().Model(&created).Exec(ctx); err != nil {
			return err
		}

		desc := fmt.Sprintf("User '%s' scheduled deployment task %d for customer '%s' (technician: %s).",
			actor.Username, created.ID, customer.Name, technician.Username)
		return auditSvc.Record(ctx, tx, actor, models.AuditCreate, desc)
	})
	if err != nil {
		return models.DeploymentTask{}, err
	}
	return created, nil
}

// ListTasks returns deployment tasks, optionally filtered by status.
// Technicians only ever see their own tasks.
func ListTasks(ctx context.Context, db *sqlite.DB, viewer models.User, status models.TaskStatus) ([]models.DeploymentTask, error) {
	var list []models.DeploymentTask
	q := db.R.NewSelect().
		Model(&list).
		Relation("Customer").
		Relation("User").
		OrderExpr("dt.scheduled_date ASC, dt.id ASC")
	if status != "" {
		q = q.Where("dt.status = ?", status)
	}
	if viewer.Role == rbac.RoleTechnician {
		q = q.Where("dt.user_id = ?", viewer.ID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.DeploymentTask{}
	}
	return list, nil
}

// UpdateChecklist applies a partial checklist update and derives the
// task status from the result. Completing the final step activates the
// customer in the same transaction, so a task can never read Completed
// while its customer is still Pending.
func UpdateChecklist(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor models.User, taskID int64, in ChecklistInput) (models.DeploymentTask, error) {
	var updated models.DeploymentTask
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		task, err := loadTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if actor.Role == rbac.RoleTechnician && task.UserID != actor.ID {
			return apperr.Forbidden("task %d is assigned to another technician", taskID)
		}
		if terminal(task.Status) {
			return apperr.InvalidState("task %d is already %s", taskID, task.Status)
		}

		if in.Step1 != nil {
			task.Step1 = *in.Step1
		}
		if in.Step2 != nil {
			task.Step2 = *in.Step2
		}
		if in.Step3 != nil {
			task.Step3 = *in.Step3
		}
		if in.Notes != nil {
			task.Notes = *in.Notes
		}

		previous := task.Status
		task.Status = ChecklistStatus(task.Step1, task.Step2, task.Step3)
		if _, err := tx.NewUpdate().
			Model(&task).
			Column("step_1", "step_2", "step_3", "notes", "status").
			WherePK().
			Exec(ctx); err != nil {
			return err
		}

		if task.Status == models.TaskCompleted {
			if _, err := tx.NewUpdate().
				Model((*models.Customer)(nil)).
				Set("status = ?", models.CustomerActive).
				Where("id = ?", task.CustomerID).
				Exec(ctx); err != nil {
				return err
			}
		}

		desc := fmt.Sprintf("User '%s' updated checklist of task %d (steps: %t/%t/%t, status: %s -> %s).",
			actor.Username, task.ID, task.Step1, task.Step2, task.Step3, previous, task.Status)
		if err := auditSvc.Record(ctx, tx, actor, models.AuditUpdate, desc); err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		return models.DeploymentTask{}, err
	}
	return updated, nil
}

// FailTask marks a deployment as abandoned. Failed is terminal; the
// customer stays Pending for replanning.
func FailTask(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor models.User, taskID int64, in FailTaskInput) (models.DeploymentTask, error) {
	var updated models.DeploymentTask
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		task, err := loadTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if actor.Role == rbac.RoleTechnician && task.UserID != actor.ID {
			return apperr.Forbidden("task %d is assigned to another technician", taskID)
		}
		if terminal(task.Status) {
			return apperr.InvalidState("task %d is already %s", taskID, task.Status)
		}

		task.Status = models.TaskFailed
		if in.Reason != "" {
			if task.Notes != "" {
				task.Notes += "\n"
			}
			task.Notes += "Failed: " + in.Reason
		}
		if _, err := tx.NewUpdate().Model(&task).Column("status", "notes").WherePK().Exec(ctx); err != nil {
			return err
		}

		desc := fmt.Sprintf("User '%s' marked task %d as Failed.", actor.Username, task.ID)
		if err := auditSvc.Record(ctx, tx, actor, models.AuditUpdate, desc); err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		return models.DeploymentTask{}, err
	}
	return updated, nil
}

func loadTask(ctx context.Context, tx bun.Tx, taskID int64) (models.DeploymentTask, error) {
	var task models.DeploymentTask
	err := tx.NewSelect().Model(&task).Where("id = ?", taskID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DeploymentTask{}, apperr.NotFound("deployment task %d not found", taskID)
		}
		return models.DeploymentTask{}, err
	}
	return task, nil
}
