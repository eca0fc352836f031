package repository

import (
	"context"

	"trxearn/internal/domain"
	"trxearn/internal/models"

	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TaskRepository) GetByID(ctx context.Context, id uint) (*models.Task, error) {
	var t models.Task
	err := r.db.WithContext(ctx).First(&t, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrTaskNotFound)
	}
	return &t, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *models.Task) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// Delete soft-deletes the task; completions keep pointing at it.
func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// List returns tasks newest first; activeOnly hides disabled ones.
func (r *TaskRepository) List(ctx context.Context, activeOnly bool) ([]models.Task, error) {
	var list []models.Task
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *TaskRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).Count(&n).Error
	return n, err
}

// CreateCompletion records a completion. The (account, task) pair is unique.
func (r *TaskRepository) CreateCompletion(ctx context.Context, c *models.TaskCompletion) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *TaskRepository) IsCompleted(ctx context.Context, accountID string, taskID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.TaskCompletion{}).
		Where("account_id = ? AND task_id = ?", accountID, taskID).
		Count(&n).Error
	return n > 0, err
}

// CompletedTaskIDs returns the account's completed-task set.
func (r *TaskRepository) CompletedTaskIDs(ctx context.Context, accountID string) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.TaskCompletion{}).
		Where("account_id = ?", accountID).
		Order("task_id ASC").
		Pluck("task_id", &ids).Error
	return ids, err
}

// CompletionTotals returns how many tasks the account completed and what they paid.
func (r *TaskRepository) CompletionTotals(ctx context.Context, accountID string) (int64, domain.Amount, error) {
	var row struct {
		Count  int64
		Reward int64
	}
	err := r.db.WithContext(ctx).Model(&models.TaskCompletion{}).
		Select("COUNT(*) AS count, COALESCE(SUM(reward), 0) AS reward").
		Where("account_id = ?", accountID).
		Scan(&row).Error
	return row.Count, domain.Amount(row.Reward), err
}
