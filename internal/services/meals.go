package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mealhq/internal/models"
	"mealhq/internal/repository"
)

var (
	ErrAlreadySubmitted = errors.New("meal count already submitted today")
	ErrInvalidMealCount = errors.New("meal count out of range")
)

// maxMealsPerSlot caps a single day's lunch or dinner count per member.
const maxMealsPerSlot = 5

type MealTableRow struct {
	User  models.User
	Cells []int
	Total int
}

// MealTable is the users × dates grid. Σ row totals == Σ column totals ==
// GrandTotal by construction.
type MealTable struct {
	Dates        []string
	Rows         []MealTableRow
	ColumnTotals []int
	GrandTotal   int
}

type MealService struct {
	mealEntryRepo repository.MealEntryRepository
	userRepo      repository.UserRepository
}

func NewMealService(mealEntryRepo repository.MealEntryRepository, userRepo repository.UserRepository) *MealService {
	return &MealService{mealEntryRepo: mealEntryRepo, userRepo: userRepo}
}

// SubmitDaily records a member's own counts for the day. One submission per
// day: the has_updated flag gates it, so a default applied by the daily reset
// does not block the member's first real submission.
func (service *MealService) SubmitDaily(ctx context.Context, userID string, date string, lunch int, dinner int) error {
	if err := validateCounts(lunch, dinner); err != nil {
		return err
	}

	user, err := service.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("finding member: %w", err)
	}
	if user.HasUpdated {
		return ErrAlreadySubmitted
	}

	if err := service.mealEntryRepo.Upsert(ctx, models.MealEntry{
		UserID: userID,
		Date:   date,
		Lunch:  lunch,
		Dinner: dinner,
	}); err != nil {
		return err
	}

	return service.userRepo.UpdateMealCounts(ctx, userID, lunch, dinner, true)
}

// SetDay is the admin edit path: it overwrites any member's counts for a day
// and is not subject to the once-per-day rule.
func (service *MealService) SetDay(ctx context.Context, userID string, date string, lunch int, dinner int) error {
	if err := validateCounts(lunch, dinner); err != nil {
		return err
	}
	if _, err := service.userRepo.FindByID(ctx, userID); err != nil {
		return fmt.Errorf("finding member: %w", err)
	}

	if err := service.mealEntryRepo.Upsert(ctx, models.MealEntry{
		UserID: userID,
		Date:   date,
		Lunch:  lunch,
		Dinner: dinner,
	}); err != nil {
		return err
	}

	return service.userRepo.UpdateMealCounts(ctx, userID, lunch, dinner, true)
}

func (service *MealService) SetDefaults(ctx context.Context, userID string, enabled bool, lunch int, dinner int) error {
	if err := validateCounts(lunch, dinner); err != nil {
		return err
	}
	return service.userRepo.UpdateDefaults(ctx, userID, enabled, lunch, dinner)
}

// Table builds the grid for the inclusive date range [from, to].
func (service *MealService) Table(ctx context.Context, from string, to string) (MealTable, error) {
	dates, err := dateRange(from, to)
	if err != nil {
		return MealTable{}, err
	}

	users, err := service.userRepo.FindAll(ctx)
	if err != nil {
		return MealTable{}, fmt.Errorf("loading members: %w", err)
	}

	entries, err := service.mealEntryRepo.FindAll(ctx, repository.MealEntryFilter{
		DateFrom: from,
		DateTo:   to,
	})
	if err != nil {
		return MealTable{}, fmt.Errorf("loading meal entries: %w", err)
	}

	return Tabulate(users, entries, dates), nil
}

// Tabulate folds entries into the grid. Exported so the aggregation invariant
// can be tested without a database.
func Tabulate(users []models.User, entries []models.MealEntry, dates []string) MealTable {
	dateIndex := make(map[string]int, len(dates))
	for i, date := range dates {
		dateIndex[date] = i
	}

	cellsByUser := make(map[string][]int, len(users))
	for _, user := range users {
		cellsByUser[user.ID] = make([]int, len(dates))
	}

	for _, entry := range entries {
		column, ok := dateIndex[entry.Date]
		if !ok {
			continue
		}
		cells, ok := cellsByUser[entry.UserID]
		if !ok {
			continue
		}
		cells[column] += entry.Lunch + entry.Dinner
	}

	table := MealTable{
		Dates:        dates,
		ColumnTotals: make([]int, len(dates)),
	}
	for _, user := range users {
		row := MealTableRow{User: user, Cells: cellsByUser[user.ID]}
		for column, count := range row.Cells {
			row.Total += count
			table.ColumnTotals[column] += count
		}
		table.GrandTotal += row.Total
		table.Rows = append(table.Rows, row)
	}

	return table
}

func (service *MealService) UserTotals(ctx context.Context, userID string) (lunch int, dinner int, err error) {
	return service.mealEntryRepo.UserTotals(ctx, userID)
}

// ResetDay is the daily rollover. It is never scheduled in-process: an
// external scheduler calls the token-authenticated job endpoint. Members who
// enabled a default get it written as their entry for the given date;
// everyone else starts the day at zero.
func (service *MealService) ResetDay(ctx context.Context, date string) error {
	users, err := service.userRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("loading members: %w", err)
	}

	if err := service.userRepo.ResetDailyCounts(ctx); err != nil {
		return fmt.Errorf("clearing daily counts: %w", err)
	}

	for _, user := range users {
		if !user.DefaultMealEnabled {
			continue
		}
		if user.DefaultLunchCount == 0 && user.DefaultDinnerCount == 0 {
			continue
		}
		if err := service.mealEntryRepo.Upsert(ctx, models.MealEntry{
			UserID: user.ID,
			Date:   date,
			Lunch:  user.DefaultLunchCount,
			Dinner: user.DefaultDinnerCount,
		}); err != nil {
			return fmt.Errorf("applying default for %s: %w", user.ID, err)
		}
		// The flag stays down: a defaulted entry is not a submission, so the
		// member can still set their own counts for the day.
		if err := service.userRepo.UpdateMealCounts(ctx, user.ID, user.DefaultLunchCount, user.DefaultDinnerCount, false); err != nil {
			return fmt.Errorf("applying default counts for %s: %w", user.ID, err)
		}
	}

	return nil
}

func validateCounts(lunch int, dinner int) error {
	if lunch < 0 || lunch > maxMealsPerSlot || dinner < 0 || dinner > maxMealsPerSlot {
		return ErrInvalidMealCount
	}
	return nil
}

func dateRange(from string, to string) ([]string, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, fmt.Errorf("parsing range start: %w", err)
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, fmt.Errorf("parsing range end: %w", err)
	}
	if end.Before(start) {
		return nil, errors.New("range end before start")
	}

	var dates []string
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dates = append(dates, day.Format("2006-01-02"))
	}
	return dates, nil
}
