package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTaskValidate(t *testing.T) {
	now := time.Now()
	bad := Cadence("fortnight")

	tests := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{
			"valid habit",
			Task{Type: TaskHabit, Title: "Pushups", Habit: HabitFields{CountIncrement: decimal.NewFromInt(1)}},
			false,
		},
		{
			"habit with bad reset cadence",
			Task{Type: TaskHabit, Title: "Pushups", Habit: HabitFields{ResetCadence: &bad}},
			true,
		},
		{
			"valid daily",
			Task{Type: TaskDaily, Title: "Run", Daily: DailyFields{RepeatCadence: CadenceWeek, RepeatEvery: 2}},
			false,
		},
		{
			"daily without cadence",
			Task{Type: TaskDaily, Title: "Run"},
			true,
		},
		{
			"daily with never cadence",
			Task{Type: TaskDaily, Title: "Run", Daily: DailyFields{RepeatCadence: CadenceNever, RepeatEvery: 1}},
			true,
		},
		{
			"daily with zero repeat_every",
			Task{Type: TaskDaily, Title: "Run", Daily: DailyFields{RepeatCadence: CadenceDay, RepeatEvery: 0}},
			true,
		},
		{
			"reward must cost gold",
			Task{Type: TaskReward, Title: "Pizza", GoldDelta: decimal.NewFromInt(5)},
			true,
		},
		{
			"valid reward",
			Task{Type: TaskReward, Title: "Pizza", GoldDelta: decimal.NewFromInt(-5)},
			false,
		},
		{
			"claimed reward needs claimed_at",
			Task{Type: TaskReward, Title: "Pizza", GoldDelta: decimal.NewFromInt(-5), Reward: RewardFields{IsClaimed: true}},
			true,
		},
		{
			"done todo needs completed_at",
			Task{Type: TaskTodo, Title: "Taxes", Todo: TodoFields{IsDone: true}},
			true,
		},
		{
			"undone todo must not carry completed_at",
			Task{Type: TaskTodo, Title: "Taxes", Todo: TodoFields{CompletedAt: &now}},
			true,
		},
		{
			"blank title",
			Task{Type: TaskTodo, Title: "   "},
			true,
		},
		{
			"unknown type",
			Task{Type: TaskType("chore"), Title: "x"},
			true,
		},
	}
	for _, tt := range tests {
		err := tt.task.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr = %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestAnchorDateUsesCreationDateInLocation(t *testing.T) {
	// 23:30 UTC on March 3 is March 4 in UTC+2; the anchor follows the
	// profile-local calendar.
	task := Task{CreatedAt: time.Date(2025, time.March, 3, 23, 30, 0, 0, time.UTC)}

	utcAnchor := task.AnchorDate(time.UTC)
	if utcAnchor.Day() != 3 {
		t.Errorf("UTC anchor day = %d, want 3", utcAnchor.Day())
	}
	plus2 := time.FixedZone("UTC+2", 2*3600)
	localAnchor := task.AnchorDate(plus2)
	if localAnchor.Day() != 4 {
		t.Errorf("UTC+2 anchor day = %d, want 4", localAnchor.Day())
	}
	// The anchor itself is a normalized UTC date value.
	if localAnchor.Hour() != 0 || localAnchor.Location() != time.UTC {
		t.Error("anchor must be midnight UTC")
	}
}

func TestCadenceIsRepeating(t *testing.T) {
	if CadenceNever.IsRepeating() {
		t.Error("never is not a repeating cadence")
	}
	for _, c := range []Cadence{CadenceDay, CadenceWeek, CadenceMonth, CadenceYear} {
		if !c.IsRepeating() {
			t.Errorf("%s should repeat", c)
		}
	}
}
