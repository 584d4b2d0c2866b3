// Package migration imports a payload exported by the local desktop app
// into a cloud profile. It is a batch importer layered on the same entities
// as the action engine but outside its transactional action contract: rows
// are validated and saved directly, id collisions are remapped, and errors
// are collected per item instead of aborting the whole import.
package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hyi96/taskweb/internal/ledger"
	"github.com/hyi96/taskweb/internal/models"
)

// Numeric log type codes used by older local exports.
var logTypeCodes = map[string]models.LogType{
	"0": models.LogDailyCompleted,
	"1": models.LogHabitIncremented,
	"2": models.LogTodoCompleted,
	"3": models.LogRewardClaimed,
	"4": models.LogActivityDuration,
}

type ProfilePayload struct {
	ID          string           `json:"id"`
	GoldBalance *decimal.Decimal `json:"gold_balance"`
}

type TagPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsSystem bool   `json:"is_system"`
}

type TaskPayload struct {
	ID       string          `json:"id"`
	TaskType string          `json:"task_type"`
	Title    string          `json:"title"`
	Notes    string          `json:"notes"`
	IsHidden bool            `json:"is_hidden"`
	GoldDelta decimal.Decimal `json:"gold_delta"`

	CurrentCount   decimal.Decimal `json:"current_count"`
	CountIncrement *decimal.Decimal `json:"count_increment"`
	ResetCadence   string          `json:"count_reset_cadence"`

	RepeatCadence        string `json:"repeat_cadence"`
	RepeatEvery          int    `json:"repeat_every"`
	CurrentStreak        int    `json:"current_streak"`
	BestStreak           int    `json:"best_streak"`
	StreakGoal           int    `json:"streak_goal"`
	LastCompletionPeriod string `json:"last_completion_period"`

	DueAt       string `json:"due_at"`
	IsDone      bool   `json:"is_done"`
	CompletedAt string `json:"completed_at"`

	IsRepeatable bool   `json:"is_repeatable"`
	IsClaimed    bool   `json:"is_claimed"`
	ClaimedAt    string `json:"claimed_at"`
	ClaimCount   int    `json:"claim_count"`

	TotalActionsCount int      `json:"total_actions_count"`
	LastActionAt      string   `json:"last_action_at"`
	TagIDs            []string `json:"tag_ids"`
}

type ChecklistPayload struct {
	ID          string `json:"id"`
	TaskID      string `json:"task_id"`
	Text        string `json:"text"`
	IsCompleted bool   `json:"is_completed"`
	SortOrder   int    `json:"sort_order"`
}

type StreakRulePayload struct {
	ID           string          `json:"id"`
	TaskID       string          `json:"task_id"`
	StreakGoal   int             `json:"streak_goal"`
	BonusPercent decimal.Decimal `json:"bonus_percent"`
}

type LogPayload struct {
	ID            string           `json:"id"`
	Timestamp     string           `json:"timestamp"`
	Type          string           `json:"type"`
	TaskID        string           `json:"task_id"`
	RewardID      string           `json:"reward_id"`
	GoldDelta     decimal.Decimal  `json:"gold_delta"`
	UserGold      decimal.Decimal  `json:"user_gold"`
	CountDelta    *decimal.Decimal `json:"count_delta"`
	Duration      string           `json:"duration"`
	TitleSnapshot string           `json:"title_snapshot"`
}

type Payload struct {
	Profile          *ProfilePayload     `json:"profile"`
	Tags             []TagPayload        `json:"tags"`
	Tasks            []TaskPayload       `json:"tasks"`
	ChecklistItems   []ChecklistPayload  `json:"checklist_items"`
	StreakBonusRules []StreakRulePayload `json:"streak_bonus_rules"`
	Logs             []LogPayload        `json:"logs"`
}

// Counts tallies one entity bucket of the import.
type Counts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

type ItemError struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Error  string `json:"error"`
}

type Result struct {
	TargetProfileID string             `json:"target_profile_id"`
	SourceProfileID string             `json:"source_profile_id,omitempty"`
	Counts          map[string]*Counts `json:"counts"`
	IDMap           map[string]map[string]string `json:"id_map"`
	Errors          []ItemError        `json:"errors"`
}

// Service imports local payloads into cloud profiles.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

// Migrate imports the payload into the profile. The whole import runs in
// one transaction holding the profile lock; individual bad items are
// counted and reported without failing the rest.
func (s *Service) Migrate(ctx context.Context, profileID uuid.UUID, accountID uint, payload *Payload) (*Result, error) {
	result := &Result{
		TargetProfileID: profileID.String(),
		Counts: map[string]*Counts{
			"tags":               {},
			"tasks":              {},
			"checklist_items":    {},
			"streak_bonus_rules": {},
			"logs":               {},
		},
		IDMap: map[string]map[string]string{
			"tags":               {},
			"tasks":              {},
			"checklist_items":    {},
			"streak_bonus_rules": {},
			"logs":               {},
		},
		Errors: []ItemError{},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() != "sqlite" {
			// SQLite has no FOR UPDATE; its writer lock already covers us.
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var profile models.Profile
		if err := q.First(&profile, "id = ?", profileID).Error; err != nil {
			return err
		}
		if profile.AccountID != accountID {
			return fmt.Errorf("profile does not belong to the authenticated account")
		}

		if payload.Profile != nil {
			result.SourceProfileID = payload.Profile.ID
			if payload.Profile.GoldBalance != nil {
				profile.GoldBalance = ledger.Cents(*payload.Profile.GoldBalance)
				if err := tx.Model(&profile).Update("gold_balance", profile.GoldBalance).Error; err != nil {
					return err
				}
			}
		}

		tagMap := s.migrateTags(tx, &profile, payload.Tags, result)
		taskMap := s.migrateTasks(tx, &profile, payload.Tasks, tagMap, result)
		s.migrateChecklist(tx, &profile, payload.ChecklistItems, taskMap, result)
		s.migrateStreakRules(tx, &profile, payload.StreakBonusRules, taskMap, result)
		s.migrateLogs(tx, &profile, payload.Logs, taskMap, result)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) recordError(result *Result, bucket, id string, err error) {
	result.Counts[bucket].Errors++
	result.Errors = append(result.Errors, ItemError{Entity: bucket, ID: id, Error: err.Error()})
}

// remapOnConflict keeps the source id when it is free or already owned
// through the given scope, and mints a fresh one when another owner holds it.
func remapOnConflict(tx *gorm.DB, model interface{}, candidate uuid.UUID, scope string, args ...interface{}) uuid.UUID {
	var count int64
	tx.Model(model).Where("id = ?", candidate).Count(&count)
	if count == 0 {
		return candidate
	}
	tx.Model(model).Where("id = ?", candidate).Where(scope, args...).Count(&count)
	if count > 0 {
		return candidate
	}
	return uuid.New()
}

func (s *Service) migrateTags(tx *gorm.DB, profile *models.Profile, tags []TagPayload, result *Result) map[string]uuid.UUID {
	mapping := make(map[string]uuid.UUID)
	for _, item := range tags {
		sourceID, err := uuid.Parse(item.ID)
		if err != nil {
			result.Counts["tags"].Skipped++
			continue
		}
		var existing models.Tag
		if tx.Where("id = ? AND profile_id = ?", sourceID, profile.ID).First(&existing).Error == nil {
			existing.Name = item.Name
			if err := existing.Validate(); err != nil {
				s.recordError(result, "tags", item.ID, err)
				continue
			}
			if err := tx.Model(&existing).Update("name", existing.Name).Error; err != nil {
				s.recordError(result, "tags", item.ID, err)
				continue
			}
			mapping[item.ID] = existing.ID
			result.Counts["tags"].Updated++
			continue
		}

		var byName models.Tag
		if tx.Where("profile_id = ? AND name = ?", profile.ID, item.Name).First(&byName).Error == nil {
			mapping[item.ID] = byName.ID
			result.Counts["tags"].Skipped++
			continue
		}

		tag := models.Tag{
			ID:        remapOnConflict(tx, &models.Tag{}, sourceID, "profile_id = ?", profile.ID),
			ProfileID: profile.ID,
			Name:      item.Name,
			IsSystem:  item.IsSystem,
		}
		if err := tag.Validate(); err != nil {
			s.recordError(result, "tags", item.ID, err)
			continue
		}
		if err := tx.Create(&tag).Error; err != nil {
			s.recordError(result, "tags", item.ID, err)
			continue
		}
		mapping[item.ID] = tag.ID
		result.Counts["tags"].Created++
	}
	for src, dst := range mapping {
		result.IDMap["tags"][src] = dst.String()
	}
	return mapping
}

func (s *Service) applyTaskFields(task *models.Task, item TaskPayload) error {
	task.Type = models.TaskType(item.TaskType)
	task.Title = item.Title
	task.Notes = item.Notes
	task.IsHidden = item.IsHidden
	task.GoldDelta = ledger.Cents(item.GoldDelta)
	task.TotalActionsCount = item.TotalActionsCount

	task.Habit.CurrentCount = ledger.Cents(item.CurrentCount)
	task.Habit.CountIncrement = decimal.NewFromInt(1)
	if item.CountIncrement != nil {
		task.Habit.CountIncrement = ledger.Cents(*item.CountIncrement)
	}
	task.Habit.ResetCadence = nil
	if item.ResetCadence != "" {
		c := models.Cadence(item.ResetCadence)
		if !c.IsValid() {
			return fmt.Errorf("invalid count reset cadence %q", item.ResetCadence)
		}
		task.Habit.ResetCadence = &c
	}

	task.Daily.RepeatCadence = models.Cadence(item.RepeatCadence)
	task.Daily.RepeatEvery = item.RepeatEvery
	if task.Daily.RepeatEvery < 1 {
		task.Daily.RepeatEvery = 1
	}
	task.Daily.CurrentStreak = item.CurrentStreak
	task.Daily.BestStreak = item.BestStreak
	task.Daily.StreakGoal = item.StreakGoal

	var err error
	if task.Daily.LastCompletionPeriod, err = parseDate(item.LastCompletionPeriod); err != nil {
		return err
	}
	if task.Todo.DueAt, err = parseTimestamp(item.DueAt); err != nil {
		return err
	}
	task.Todo.IsDone = item.IsDone
	if task.Todo.CompletedAt, err = parseTimestamp(item.CompletedAt); err != nil {
		return err
	}
	task.Reward.IsRepeatable = item.IsRepeatable
	task.Reward.IsClaimed = item.IsClaimed
	if task.Reward.ClaimedAt, err = parseTimestamp(item.ClaimedAt); err != nil {
		return err
	}
	task.Reward.ClaimCount = item.ClaimCount
	if task.LastActionAt, err = parseTimestamp(item.LastActionAt); err != nil {
		return err
	}
	return nil
}

func (s *Service) migrateTasks(tx *gorm.DB, profile *models.Profile, tasks []TaskPayload, tagMap map[string]uuid.UUID, result *Result) map[string]uuid.UUID {
	mapping := make(map[string]uuid.UUID)
	for _, item := range tasks {
		sourceID, err := uuid.Parse(item.ID)
		if err != nil {
			result.Counts["tasks"].Skipped++
			continue
		}

		var target models.Task
		created := false
		if tx.Where("id = ? AND profile_id = ?", sourceID, profile.ID).First(&target).Error != nil {
			target = models.Task{
				ID:        remapOnConflict(tx, &models.Task{}, sourceID, "profile_id = ?", profile.ID),
				ProfileID: profile.ID,
			}
			created = true
		}
		if err := s.applyTaskFields(&target, item); err != nil {
			s.recordError(result, "tasks", item.ID, err)
			continue
		}
		if err := target.Validate(); err != nil {
			s.recordError(result, "tasks", item.ID, err)
			continue
		}
		if err := tx.Save(&target).Error; err != nil {
			s.recordError(result, "tasks", item.ID, err)
			continue
		}

		// Re-link tags through the id map, dropping references to tags that
		// did not survive the import.
		var tags []models.Tag
		for _, tagID := range item.TagIDs {
			mapped, ok := tagMap[tagID]
			if !ok {
				if parsed, err := uuid.Parse(tagID); err == nil {
					mapped = parsed
				} else {
					continue
				}
			}
			var tag models.Tag
			if tx.Where("id = ? AND profile_id = ?", mapped, profile.ID).First(&tag).Error == nil {
				tags = append(tags, tag)
			}
		}
		if err := tx.Model(&target).Association("Tags").Replace(tags); err != nil {
			s.recordError(result, "tasks", item.ID, err)
			continue
		}

		mapping[item.ID] = target.ID
		if created {
			result.Counts["tasks"].Created++
		} else {
			result.Counts["tasks"].Updated++
		}
	}
	for src, dst := range mapping {
		result.IDMap["tasks"][src] = dst.String()
	}
	return mapping
}

func (s *Service) migrateChecklist(tx *gorm.DB, profile *models.Profile, items []ChecklistPayload, taskMap map[string]uuid.UUID, result *Result) {
	for _, item := range items {
		sourceID, err := uuid.Parse(item.ID)
		if err != nil {
			result.Counts["checklist_items"].Skipped++
			continue
		}
		targetTaskID, ok := taskMap[item.TaskID]
		if !ok {
			if parsed, perr := uuid.Parse(item.TaskID); perr == nil {
				targetTaskID = parsed
			} else {
				result.Counts["checklist_items"].Skipped++
				continue
			}
		}
		var task models.Task
		if tx.Where("id = ? AND profile_id = ? AND task_type = ?", targetTaskID, profile.ID, models.TaskTodo).
			First(&task).Error != nil {
			result.Counts["checklist_items"].Skipped++
			continue
		}

		var existing models.ChecklistItem
		if tx.Joins("Task").Where("checklist_items.id = ? AND Task.profile_id = ?", sourceID, profile.ID).
			First(&existing).Error == nil {
			existing.TaskID = task.ID
			existing.Text = item.Text
			existing.IsCompleted = item.IsCompleted
			existing.SortOrder = item.SortOrder
			if err := existing.Validate(); err != nil {
				s.recordError(result, "checklist_items", item.ID, err)
				continue
			}
			if err := tx.Save(&existing).Error; err != nil {
				s.recordError(result, "checklist_items", item.ID, err)
				continue
			}
			result.IDMap["checklist_items"][item.ID] = existing.ID.String()
			result.Counts["checklist_items"].Updated++
			continue
		}

		checklist := models.ChecklistItem{
			ID:          remapOnConflict(tx, &models.ChecklistItem{}, sourceID, "task_id = ?", task.ID),
			TaskID:      task.ID,
			Text:        item.Text,
			IsCompleted: item.IsCompleted,
			SortOrder:   item.SortOrder,
		}
		if err := checklist.Validate(); err != nil {
			s.recordError(result, "checklist_items", item.ID, err)
			continue
		}
		if err := tx.Create(&checklist).Error; err != nil {
			s.recordError(result, "checklist_items", item.ID, err)
			continue
		}
		result.IDMap["checklist_items"][item.ID] = checklist.ID.String()
		result.Counts["checklist_items"].Created++
	}
}

func (s *Service) migrateStreakRules(tx *gorm.DB, profile *models.Profile, rules []StreakRulePayload, taskMap map[string]uuid.UUID, result *Result) {
	for _, item := range rules {
		sourceID, err := uuid.Parse(item.ID)
		if err != nil {
			result.Counts["streak_bonus_rules"].Skipped++
			continue
		}
		targetTaskID, ok := taskMap[item.TaskID]
		if !ok {
			if parsed, perr := uuid.Parse(item.TaskID); perr == nil {
				targetTaskID = parsed
			} else {
				result.Counts["streak_bonus_rules"].Skipped++
				continue
			}
		}
		var task models.Task
		if tx.Where("id = ? AND profile_id = ? AND task_type = ?", targetTaskID, profile.ID, models.TaskDaily).
			First(&task).Error != nil {
			result.Counts["streak_bonus_rules"].Skipped++
			continue
		}

		var existing models.StreakBonusRule
		if tx.Joins("Task").Where("streak_bonus_rules.id = ? AND Task.profile_id = ?", sourceID, profile.ID).
			First(&existing).Error == nil {
			existing.TaskID = task.ID
			existing.StreakGoal = item.StreakGoal
			existing.BonusPercent = ledger.Cents(item.BonusPercent)
			if err := existing.Validate(); err != nil {
				s.recordError(result, "streak_bonus_rules", item.ID, err)
				continue
			}
			if err := tx.Save(&existing).Error; err != nil {
				s.recordError(result, "streak_bonus_rules", item.ID, err)
				continue
			}
			result.IDMap["streak_bonus_rules"][item.ID] = existing.ID.String()
			result.Counts["streak_bonus_rules"].Updated++
			continue
		}

		rule := models.StreakBonusRule{
			ID:           remapOnConflict(tx, &models.StreakBonusRule{}, sourceID, "task_id = ?", task.ID),
			TaskID:       task.ID,
			StreakGoal:   item.StreakGoal,
			BonusPercent: ledger.Cents(item.BonusPercent),
		}
		if rule.StreakGoal < 1 {
			rule.StreakGoal = 1
		}
		if err := rule.Validate(); err != nil {
			s.recordError(result, "streak_bonus_rules", item.ID, err)
			continue
		}
		if err := tx.Create(&rule).Error; err != nil {
			s.recordError(result, "streak_bonus_rules", item.ID, err)
			continue
		}
		result.IDMap["streak_bonus_rules"][item.ID] = rule.ID.String()
		result.Counts["streak_bonus_rules"].Created++
	}
}

func (s *Service) migrateLogs(tx *gorm.DB, profile *models.Profile, logs []LogPayload, taskMap map[string]uuid.UUID, result *Result) {
	for _, item := range logs {
		sourceID, err := uuid.Parse(item.ID)
		if err != nil {
			result.Counts["logs"].Skipped++
			continue
		}

		logType, err := normalizeLogType(item.Type)
		if err != nil {
			s.recordError(result, "logs", item.ID, err)
			continue
		}
		ts, err := parseTimestamp(item.Timestamp)
		if err != nil {
			s.recordError(result, "logs", item.ID, err)
			continue
		}
		if ts == nil {
			now := time.Now()
			ts = &now
		}
		duration, err := parseDuration(item.Duration)
		if err != nil {
			s.recordError(result, "logs", item.ID, err)
			continue
		}

		taskRef := resolveTaskRef(tx, profile, item.TaskID, taskMap, "")
		rewardRef := resolveTaskRef(tx, profile, item.RewardID, taskMap, models.TaskReward)

		fields := models.LogEntry{
			ProfileID:     profile.ID,
			Timestamp:     *ts,
			Type:          logType,
			TaskID:        taskRef,
			RewardID:      rewardRef,
			GoldDelta:     ledger.Cents(item.GoldDelta),
			UserGold:      ledger.Cents(item.UserGold),
			CountDelta:    item.CountDelta,
			Duration:      duration,
			TitleSnapshot: item.TitleSnapshot,
		}

		var existing models.LogEntry
		if tx.Where("id = ? AND profile_id = ?", sourceID, profile.ID).First(&existing).Error == nil {
			fields.ID = existing.ID
			fields.CreatedAt = existing.CreatedAt
			if err := tx.Save(&fields).Error; err != nil {
				s.recordError(result, "logs", item.ID, err)
				continue
			}
			result.IDMap["logs"][item.ID] = existing.ID.String()
			result.Counts["logs"].Updated++
			continue
		}

		fields.ID = remapOnConflict(tx, &models.LogEntry{}, sourceID, "profile_id = ?", profile.ID)
		if err := tx.Create(&fields).Error; err != nil {
			s.recordError(result, "logs", item.ID, err)
			continue
		}
		result.IDMap["logs"][item.ID] = fields.ID.String()
		result.Counts["logs"].Created++
	}
}

func resolveTaskRef(tx *gorm.DB, profile *models.Profile, sourceID string, taskMap map[string]uuid.UUID, wantType models.TaskType) *uuid.UUID {
	if sourceID == "" {
		return nil
	}
	mapped, ok := taskMap[sourceID]
	if !ok {
		parsed, err := uuid.Parse(sourceID)
		if err != nil {
			return nil
		}
		mapped = parsed
	}
	q := tx.Model(&models.Task{}).Where("id = ? AND profile_id = ?", mapped, profile.ID)
	if wantType != "" {
		q = q.Where("task_type = ?", wantType)
	}
	var count int64
	q.Count(&count)
	if count == 0 {
		return nil
	}
	return &mapped
}

func normalizeLogType(value string) (models.LogType, error) {
	if mapped, ok := logTypeCodes[value]; ok {
		return mapped, nil
	}
	t := models.LogType(value)
	if !t.IsValid() {
		return "", fmt.Errorf("unsupported log type: %q", value)
	}
	return t, nil
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date value: %q", value)
	}
	return &t, nil
}

func parseTimestamp(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid datetime value: %q", value)
}

// parseDuration accepts Go duration strings ("20m") and the local app's
// "HH:MM:SS" form.
func parseDuration(value string) (*time.Duration, error) {
	if value == "" {
		return nil, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return &d, nil
	}
	var h, m, sec int
	if _, err := fmt.Sscanf(value, "%d:%d:%d", &h, &m, &sec); err == nil {
		d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
		return &d, nil
	}
	return nil, fmt.Errorf("invalid duration value: %q", value)
}
