package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hyi96/taskweb/internal/models"
	"github.com/hyi96/taskweb/internal/periods"
)

func TestRefreshBreaksMissedStreak(t *testing.T) {
	eng, db := newTestEngine(t)
	account, profile := newAccountProfile(t, db, "refresh1", "0.00")

	last := periods.Date(2025, time.March, 1)
	task := &models.Task{
		ProfileID: profile.ID,
		Type:      models.TaskDaily,
		Title:     "Meditate",
		GoldDelta: dec("1.00"),
		Daily: models.DailyFields{
			RepeatCadence:        models.CadenceDay,
			RepeatEvery:          1,
			CurrentStreak:        5,
			BestStreak:           5,
			LastCompletionPeriod: &last,
		},
	}
	mustCreateTask(t, db, task, at(2025, time.February, 1, 8))

	// March 4: the last completion (March 1) is older than the previous
	// period (March 3), so the streak is broken.
	if err := eng.RefreshProfilePeriodState(context.Background(), profile.ID, account.ID, at(2025, time.March, 4, 9)); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	updated := reloadTask(t, db, task.ID)
	if updated.Daily.CurrentStreak != 0 {
		t.Errorf("streak = %d, want 0", updated.Daily.CurrentStreak)
	}
	if updated.Daily.BestStreak != 5 {
		t.Errorf("best streak = %d, want 5 preserved", updated.Daily.BestStreak)
	}
}

func TestRefreshKeepsLiveStreak(t *testing.T) {
	eng, db := newTestEngine(t)
	account, profile := newAccountProfile(t, db, "refresh2", "0.00")

	// Completed yesterday: still within reach of today's period.
	last := periods.Date(2025, time.March, 3)
	task := &models.Task{
		ProfileID: profile.ID,
		Type:      models.TaskDaily,
		Title:     "Walk",
		GoldDelta: dec("1.00"),
		Daily: models.DailyFields{
			RepeatCadence:        models.CadenceDay,
			RepeatEvery:          1,
			CurrentStreak:        3,
			BestStreak:           3,
			LastCompletionPeriod: &last,
		},
	}
	mustCreateTask(t, db, task, at(2025, time.February, 1, 8))

	if err := eng.RefreshProfilePeriodState(context.Background(), profile.ID, account.ID, at(2025, time.March, 4, 9)); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := reloadTask(t, db, task.ID).Daily.CurrentStreak; got != 3 {
		t.Errorf("streak = %d, want 3 untouched", got)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	eng, db := newTestEngine(t)
	account, profile := newAccountProfile(t, db, "refresh3", "0.00")

	last := periods.Date(2025, time.February, 20)
	task := &models.Task{
		ProfileID: profile.ID,
		Type:      models.TaskDaily,
		Title:     "Read",
		GoldDelta: dec("1.00"),
		Daily: models.DailyFields{
			RepeatCadence:        models.CadenceDay,
			RepeatEvery:          1,
			CurrentStreak:        2,
			BestStreak:           4,
			LastCompletionPeriod: &last,
		},
	}
	mustCreateTask(t, db, task, at(2025, time.February, 1, 8))

	ts := at(2025, time.March, 4, 9)
	for i := 0; i < 3; i++ {
		if err := eng.RefreshProfilePeriodState(context.Background(), profile.ID, account.ID, ts); err != nil {
			t.Fatalf("refresh %d: %v", i+1, err)
		}
	}
	updated := reloadTask(t, db, task.ID)
	if updated.Daily.CurrentStreak != 0 || updated.Daily.BestStreak != 4 {
		t.Errorf("state = %d/%d, want 0/4", updated.Daily.CurrentStreak, updated.Daily.BestStreak)
	}
	if countLogs(t, db, profile.ID) != 0 {
		t.Error("refresh must never log")
	}
}

func TestRefreshResetsHabitCounter(t *testing.T) {
	eng, db := newTestEngine(t)
	account, profile := newAccountProfile(t, db, "refresh4", "0.00")

	week := models.CadenceWeek
	lastAction := at(2025, time.February, 26, 10) // Wednesday of the prior week
	stale := &models.Task{
		ProfileID: profile.ID,
		Type:      models.TaskHabit,
		Title:     "Stale habit",
		GoldDelta: dec("1.00"),
		Habit: models.HabitFields{
			CurrentCount:   dec("5.00"),
			CountIncrement: dec("1.00"),
			ResetCadence:   &week,
		},
		LastActionAt: &lastAction,
	}
	mustCreateTask(t, db, stale, at(2025, time.February, 1, 8))

	// Same bucket: acted this week already.
	freshAction := at(2025, time.March, 3, 9)
	live := &models.Task{
		ProfileID: profile.ID,
		Type:      models.TaskHabit,
		Title:     "Live habit",
		GoldDelta: dec("1.00"),
		Habit: models.HabitFields{
			CurrentCount:   dec("2.00"),
			CountIncrement: dec("1.00"),
			ResetCadence:   &week,
		},
		LastActionAt: &freshAction,
	}
	mustCreateTask(t, db, live, at(2025, time.February, 1, 8))

	// No reset cadence: never touched.
	untouched := &models.Task{
		ProfileID: profile.ID,
		Type:      models.TaskHabit,
		Title:     "No reset",
		GoldDelta: dec("1.00"),
		Habit: models.HabitFields{
			CurrentCount:   dec("9.00"),
			CountIncrement: dec("1.00"),
		},
		LastActionAt: &lastAction,
	}
	mustCreateTask(t, db, untouched, at(2025, time.February, 1, 8))

	if err := eng.RefreshProfilePeriodState(context.Background(), profile.ID, account.ID, at(2025, time.March, 4, 9)); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if got := reloadTask(t, db, stale.ID).Habit.CurrentCount; !got.IsZero() {
		t.Errorf("stale counter = %s, want 0", got)
	}
	if got := reloadTask(t, db, live.ID).Habit.CurrentCount.StringFixed(2); got != "2.00" {
		t.Errorf("live counter = %s, want 2.00", got)
	}
	if got := reloadTask(t, db, untouched.ID).Habit.CurrentCount.StringFixed(2); got != "9.00" {
		t.Errorf("no-reset counter = %s, want 9.00", got)
	}
}

func TestRefreshSkipsHabitWithoutLastAction(t *testing.T) {
	eng, db := newTestEngine(t)
	account, profile := newAccountProfile(t, db, "refresh5", "0.00")

	month := models.CadenceMonth
	task := &models.Task{
		ProfileID: profile.ID,
		Type:      models.TaskHabit,
		Title:     "Imported habit",
		GoldDelta: dec("1.00"),
		Habit: models.HabitFields{
			CurrentCount:   dec("3.00"),
			CountIncrement: dec("1.00"),
			ResetCadence:   &month,
		},
	}
	mustCreateTask(t, db, task, at(2025, time.January, 1, 8))

	if err := eng.RefreshProfilePeriodState(context.Background(), profile.ID, account.ID, at(2025, time.March, 4, 9)); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	// No last action recorded: the counter has no bucket to compare, left alone.
	if got := reloadTask(t, db, task.ID).Habit.CurrentCount.StringFixed(2); got != "3.00" {
		t.Errorf("counter = %s, want 3.00 untouched", got)
	}
}

func TestUncompletedDailiesFromPreviousPeriod(t *testing.T) {
	eng, db := newTestEngine(t)
	account, profile := newAccountProfile(t, db, "preview", "0.00")

	created := at(2025, time.February, 1, 8)

	missedYesterday := periods.Date(2025, time.February, 20)
	missed := &models.Task{
		ProfileID: profile.ID, Type: models.TaskDaily, Title: "B missed", GoldDelta: dec("1.00"),
		Daily: models.DailyFields{RepeatCadence: models.CadenceDay, RepeatEvery: 1, LastCompletionPeriod: &missedYesterday},
	}
	mustCreateTask(t, db, missed, created)

	neverDone := &models.Task{
		ProfileID: profile.ID, Type: models.TaskDaily, Title: "A never", GoldDelta: dec("1.00"),
		Daily: models.DailyFields{RepeatCadence: models.CadenceDay, RepeatEvery: 1},
	}
	mustCreateTask(t, db, neverDone, created)

	donePrevious := periods.Date(2025, time.March, 3)
	covered := &models.Task{
		ProfileID: profile.ID, Type: models.TaskDaily, Title: "C covered", GoldDelta: dec("1.00"),
		Daily: models.DailyFields{RepeatCadence: models.CadenceDay, RepeatEvery: 1, LastCompletionPeriod: &donePrevious},
	}
	mustCreateTask(t, db, covered, created)

	items, err := eng.UncompletedDailiesFromPreviousPeriod(context.Background(), profile.ID, account.ID, at(2025, time.March, 4, 9))
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	// Ordered by title.
	if items[0].Title != "A never" || items[1].Title != "B missed" {
		t.Errorf("order = %q, %q", items[0].Title, items[1].Title)
	}
	want := periods.Date(2025, time.March, 3)
	if !periods.SameDate(items[0].PreviousPeriodStart, want) {
		t.Errorf("previous period = %v, want %v", items[0].PreviousPeriodStart, want)
	}
}

func TestStartNewDayBackfill(t *testing.T) {
	eng, db := newTestEngine(t)
	account, profile := newAccountProfile(t, db, "newday", "0.00")

	created := at(2025, time.February, 1, 8)

	// Last completed two days ago (the period before the previous one), so a
	// backfill of yesterday continues the streak.
	twoDaysAgo := periods.Date(2025, time.March, 2)
	continuing := &models.Task{
		ProfileID: profile.ID, Type: models.TaskDaily, Title: "Continuing", GoldDelta: dec("1.00"),
		Daily: models.DailyFields{RepeatCadence: models.CadenceDay, RepeatEvery: 1, CurrentStreak: 3, BestStreak: 3, LastCompletionPeriod: &twoDaysAgo},
	}
	mustCreateTask(t, db, continuing, created)

	// Long gap: backfill restarts at 1.
	old := periods.Date(2025, time.February, 10)
	restarted := &models.Task{
		ProfileID: profile.ID, Type: models.TaskDaily, Title: "Restarted", GoldDelta: dec("1.00"),
		Daily: models.DailyFields{RepeatCadence: models.CadenceDay, RepeatEvery: 1, CurrentStreak: 2, BestStreak: 6, LastCompletionPeriod: &old},
	}
	mustCreateTask(t, db, restarted, created)

	// Already covers the previous period: skipped.
	yesterday := periods.Date(2025, time.March, 3)
	alreadyDone := &models.Task{
		ProfileID: profile.ID, Type: models.TaskDaily, Title: "Done", GoldDelta: dec("1.00"),
		Daily: models.DailyFields{RepeatCadence: models.CadenceDay, RepeatEvery: 1, CurrentStreak: 1, BestStreak: 1, LastCompletionPeriod: &yesterday},
	}
	mustCreateTask(t, db, alreadyDone, created)

	// A non-daily id in the checked list is ignored.
	habit := &models.Task{ProfileID: profile.ID, Type: models.TaskHabit, Title: "H", GoldDelta: dec("1.00"),
		Habit: models.HabitFields{CountIncrement: dec("1.00")}}
	mustCreateTask(t, db, habit, created)

	ids := []uuid.UUID{continuing.ID, restarted.ID, alreadyDone.ID, habit.ID, uuid.New()}
	updated, err := eng.StartNewDay(context.Background(), profile.ID, account.ID, ids, at(2025, time.March, 4, 7))
	if err != nil {
		t.Fatalf("start new day: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}

	cont := reloadTask(t, db, continuing.ID)
	if cont.Daily.CurrentStreak != 4 || cont.Daily.BestStreak != 4 {
		t.Errorf("continuing streak = %d/%d, want 4/4", cont.Daily.CurrentStreak, cont.Daily.BestStreak)
	}
	if cont.Daily.LastCompletionPeriod == nil || !periods.SameDate(*cont.Daily.LastCompletionPeriod, yesterday) {
		t.Errorf("continuing last period = %v, want %v", cont.Daily.LastCompletionPeriod, yesterday)
	}

	rest := reloadTask(t, db, restarted.ID)
	if rest.Daily.CurrentStreak != 1 || rest.Daily.BestStreak != 6 {
		t.Errorf("restarted streak = %d/%d, want 1/6", rest.Daily.CurrentStreak, rest.Daily.BestStreak)
	}

	// No gold, no logs: backfill is a correction, not an earning action.
	if got := reloadProfile(t, db, profile.ID).GoldBalance; !got.IsZero() {
		t.Errorf("balance = %s, want 0", got)
	}
	if countLogs(t, db, profile.ID) != 0 {
		t.Error("backfill must not log")
	}
}

func TestStartNewDayRejectsForeignProfile(t *testing.T) {
	eng, db := newTestEngine(t)
	_, profile := newAccountProfile(t, db, "victim", "0.00")
	intruder, _ := newAccountProfile(t, db, "attacker", "0.00")

	_, err := eng.StartNewDay(context.Background(), profile.ID, intruder.ID, nil, time.Now())
	if err == nil {
		t.Fatal("want ownership error")
	}
}
