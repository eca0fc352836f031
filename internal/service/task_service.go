package service

import (
	"context"
	"errors"
	"strings"

	"trxearn/internal/domain"
	"trxearn/internal/models"
	"trxearn/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrTaskFieldsRequired = errors.New("title and type are required")

// TaskService manages the task catalog. Rewards are paid by LedgerService.CompleteTask.
type TaskService struct {
	taskRepo    *repository.TaskRepository
	accountRepo *repository.AccountRepository
	logger      *zap.Logger
}

func NewTaskService(db *gorm.DB, logger *zap.Logger) *TaskService {
	return &TaskService{
		taskRepo:    repository.NewTaskRepository(db),
		accountRepo: repository.NewAccountRepository(db),
		logger:      logger.Named("task"),
	}
}

// DefaultTasks is the catalog seeded into an empty database.
func DefaultTasks() []models.Task {
	return []models.Task{
		{
			Title:              "Join our Telegram Channel",
			Description:        "Join our main announcement channel to stay updated",
			Type:               domain.TaskTypeTelegramChannel,
			URL:                "https://t.me/trxearnofficial",
			Reward:             domain.MustAmount("0.01"),
			IsActive:           true,
			RequiredAction:     domain.TaskActionJoin,
			VerificationMethod: domain.VerificationManual,
		},
		{
			Title:              "Follow our Updates Channel",
			Description:        "Get the latest news and updates about TRX Earn",
			Type:               domain.TaskTypeTelegramChannel,
			URL:                "https://t.me/trxearnupdates",
			Reward:             domain.MustAmount("0.015"),
			IsActive:           true,
			RequiredAction:     domain.TaskActionJoin,
			VerificationMethod: domain.VerificationManual,
		},
		{
			Title:              "Start our Support Bot",
			Description:        "Start our support bot for help and assistance",
			Type:               domain.TaskTypeTelegramBot,
			URL:                "https://t.me/trxearnsupportbot",
			Reward:             domain.MustAmount("0.008"),
			IsActive:           true,
			RequiredAction:     domain.TaskActionStart,
			VerificationMethod: domain.VerificationManual,
		},
		{
			Title:              "Visit our Website",
			Description:        "Check out our official website for more information",
			Type:               domain.TaskTypeExternalLink,
			URL:                "https://trxearn.com",
			Reward:             domain.MustAmount("0.005"),
			IsActive:           true,
			RequiredAction:     domain.TaskActionVisit,
			VerificationMethod: domain.VerificationManual,
		},
	}
}

// SeedDefaults inserts the default tasks when the catalog is empty.
func (s *TaskService) SeedDefaults(ctx context.Context) error {
	n, err := s.taskRepo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, t := range DefaultTasks() {
		t := t
		if err := s.taskRepo.Create(ctx, &t); err != nil {
			return err
		}
	}
	s.logger.Info("default tasks seeded", zap.Int("count", len(DefaultTasks())))
	return nil
}

func (s *TaskService) List(ctx context.Context, activeOnly bool) ([]models.Task, error) {
	return s.taskRepo.List(ctx, activeOnly)
}

type TaskView struct {
	models.Task
	IsCompleted bool `json:"is_completed"`
	CanComplete bool `json:"can_complete"`
}

type AccountTasks struct {
	Tasks          []TaskView `json:"tasks"`
	TotalTasks     int        `json:"total_tasks"`
	CompletedTasks int        `json:"completed_tasks"`
}

// ListForAccount returns the active tasks with the account's completion flags.
func (s *TaskService) ListForAccount(ctx context.Context, accountID string) (*AccountTasks, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.List(ctx, true)
	if err != nil {
		return nil, err
	}
	done, err := s.completedSet(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := &AccountTasks{Tasks: make([]TaskView, 0, len(tasks)), TotalTasks: len(tasks)}
	for _, t := range tasks {
		_, completed := done[t.ID]
		if completed {
			out.CompletedTasks++
		}
		out.Tasks = append(out.Tasks, TaskView{Task: t, IsCompleted: completed, CanComplete: !completed})
	}
	return out, nil
}

func (s *TaskService) completedSet(ctx context.Context, accountID string) (map[uint]struct{}, error) {
	ids, err := s.taskRepo.CompletedTaskIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (s *TaskService) Get(ctx context.Context, id uint) (*models.Task, error) {
	return s.taskRepo.GetByID(ctx, id)
}

// TaskInput carries admin edits. Nil fields are left unchanged on update.
type TaskInput struct {
	Title              *string        `json:"title"`
	Description        *string        `json:"description"`
	Type               *string        `json:"type"`
	URL                *string        `json:"url"`
	Reward             *domain.Amount `json:"reward"`
	IsActive           *bool          `json:"is_active"`
	RequiredAction     *string        `json:"required_action"`
	VerificationMethod *string        `json:"verification_method"`
}

func (s *TaskService) Create(ctx context.Context, in TaskInput) (*models.Task, error) {
	t := &models.Task{
		IsActive:           true,
		VerificationMethod: domain.VerificationManual,
	}
	in.apply(t)
	if strings.TrimSpace(t.Title) == "" || t.Type == "" {
		return nil, ErrTaskFieldsRequired
	}
	if !t.Reward.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if err := s.taskRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, id uint, in TaskInput) (*models.Task, error) {
	t, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(t)
	if !t.Reward.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if err := s.taskRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id uint) error {
	return s.taskRepo.Delete(ctx, id)
}

func (in TaskInput) apply(t *models.Task) {
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Type != nil {
		t.Type = *in.Type
	}
	if in.URL != nil {
		t.URL = *in.URL
	}
	if in.Reward != nil {
		t.Reward = *in.Reward
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if in.RequiredAction != nil {
		t.RequiredAction = *in.RequiredAction
	}
	if in.VerificationMethod != nil {
		t.VerificationMethod = *in.VerificationMethod
	}
}

type TaskStats struct {
	TotalTasks            int           `json:"total_tasks"`
	CompletedTasks        int           `json:"completed_tasks"`
	AvailableTasks        int           `json:"available_tasks"`
	TotalEarnedFromTasks  domain.Amount `json:"total_earned_from_tasks"`
	TotalPossibleEarnings domain.Amount `json:"total_possible_earnings"`
	CompletionPercentage  float64       `json:"completion_percentage"`
}

// Stats compares the account's completions against the active catalog.
func (s *TaskService) Stats(ctx context.Context, accountID string) (*TaskStats, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.List(ctx, true)
	if err != nil {
		return nil, err
	}
	done, err := s.completedSet(ctx, accountID)
	if err != nil {
		return nil, err
	}
	_, earned, err := s.taskRepo.CompletionTotals(ctx, accountID)
	if err != nil {
		return nil, err
	}
	st := &TaskStats{TotalTasks: len(tasks), TotalEarnedFromTasks: earned}
	for _, t := range tasks {
		st.TotalPossibleEarnings += t.Reward
		if _, ok := done[t.ID]; ok {
			st.CompletedTasks++
		}
	}
	st.AvailableTasks = st.TotalTasks - st.CompletedTasks
	if st.TotalTasks > 0 {
		st.CompletionPercentage = float64(st.CompletedTasks) / float64(st.TotalTasks) * 100
	}
	return st, nil
}
