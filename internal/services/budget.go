package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"mealhq/internal/models"
	"mealhq/internal/repository"
)

var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrNoExtraItems  = errors.New("no extra items to add")
)

var hundred = decimal.NewFromInt(100)

type BudgetSummary struct {
	TotalContributions decimal.Decimal
	TotalSpent         decimal.Decimal
	Remaining          decimal.Decimal
	PercentSpent       decimal.Decimal
	PercentRemaining   decimal.Decimal
}

type CategoryBreakdown struct {
	Category models.ExtraCategory
	Count    int
	Amount   decimal.Decimal
	Percent  decimal.Decimal
}

// Summarize folds the two ledgers into the budget figures. A zero budget
// reports 0% spent rather than a division error; remaining may go negative.
func Summarize(contributions []models.Contribution, extras []models.Extra) BudgetSummary {
	summary := BudgetSummary{
		TotalContributions: decimal.Zero,
		TotalSpent:         decimal.Zero,
	}
	for _, contribution := range contributions {
		summary.TotalContributions = summary.TotalContributions.Add(contribution.Amount)
	}
	for _, extra := range extras {
		summary.TotalSpent = summary.TotalSpent.Add(extra.Amount)
	}

	summary.Remaining = summary.TotalContributions.Sub(summary.TotalSpent)

	if summary.TotalContributions.IsPositive() {
		summary.PercentSpent = summary.TotalSpent.Div(summary.TotalContributions).Mul(hundred)
	} else {
		summary.PercentSpent = decimal.Zero
	}
	summary.PercentRemaining = hundred.Sub(summary.PercentSpent)

	return summary
}

// BreakdownByCategory partitions the ledger into exactly three rows: rice, egg
// and other. Rows with an unrecognized category land in other, so the
// partition stays exhaustive and disjoint.
func BreakdownByCategory(extras []models.Extra) []CategoryBreakdown {
	order := []models.ExtraCategory{models.CategoryRice, models.CategoryEgg, models.CategoryOther}

	byCategory := make(map[models.ExtraCategory]*CategoryBreakdown, len(order))
	breakdown := make([]CategoryBreakdown, len(order))
	for i, category := range order {
		breakdown[i] = CategoryBreakdown{Category: category, Amount: decimal.Zero, Percent: decimal.Zero}
		byCategory[category] = &breakdown[i]
	}

	totalSpent := decimal.Zero
	for _, extra := range extras {
		row, ok := byCategory[extra.Category]
		if !ok {
			row = byCategory[models.CategoryOther]
		}
		row.Count++
		row.Amount = row.Amount.Add(extra.Amount)
		totalSpent = totalSpent.Add(extra.Amount)
	}

	if totalSpent.IsPositive() {
		for i := range breakdown {
			breakdown[i].Percent = breakdown[i].Amount.Div(totalSpent).Mul(hundred)
		}
	}

	return breakdown
}

type BudgetService struct {
	contributionRepo repository.ContributionRepository
	extraRepo        repository.ExtraRepository
	userRepo         repository.UserRepository
	settingsRepo     repository.SettingsRepository
	mealEntryRepo    repository.MealEntryRepository
}

func NewBudgetService(
	contributionRepo repository.ContributionRepository,
	extraRepo repository.ExtraRepository,
	userRepo repository.UserRepository,
	settingsRepo repository.SettingsRepository,
	mealEntryRepo repository.MealEntryRepository,
) *BudgetService {
	return &BudgetService{
		contributionRepo: contributionRepo,
		extraRepo:        extraRepo,
		userRepo:         userRepo,
		settingsRepo:     settingsRepo,
		mealEntryRepo:    mealEntryRepo,
	}
}

func (service *BudgetService) Summary(ctx context.Context) (BudgetSummary, error) {
	contributions, err := service.contributionRepo.FindAll(ctx)
	if err != nil {
		return BudgetSummary{}, fmt.Errorf("loading contributions: %w", err)
	}
	extras, err := service.extraRepo.FindAll(ctx, repository.ExtraFilter{})
	if err != nil {
		return BudgetSummary{}, fmt.Errorf("loading extras: %w", err)
	}
	return Summarize(contributions, extras), nil
}

func (service *BudgetService) Breakdown(ctx context.Context) ([]CategoryBreakdown, error) {
	extras, err := service.extraRepo.FindAll(ctx, repository.ExtraFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading extras: %w", err)
	}
	return BreakdownByCategory(extras), nil
}

func (service *BudgetService) AddContribution(ctx context.Context, userID string, amount decimal.Decimal, description string, date string) (models.Contribution, error) {
	if !amount.IsPositive() {
		return models.Contribution{}, ErrInvalidAmount
	}
	if _, err := service.userRepo.FindByID(ctx, userID); err != nil {
		return models.Contribution{}, fmt.Errorf("checking contributor: %w", err)
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	return service.contributionRepo.Create(ctx, models.Contribution{
		UserID:      userID,
		Amount:      amount,
		Description: description,
		Date:        date,
	})
}

// AddExtraItems bills a member for counted rice/egg servings at the unit
// prices kept in settings. One ledger row per category.
func (service *BudgetService) AddExtraItems(ctx context.Context, userID string, riceQty int, eggQty int, date string) ([]models.Extra, error) {
	if riceQty <= 0 && eggQty <= 0 {
		return nil, ErrNoExtraItems
	}
	if _, err := service.userRepo.FindByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("checking member: %w", err)
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	var created []models.Extra
	if riceQty > 0 {
		price := service.unitPrice(ctx, repository.SettingRicePrice, "10.00")
		extra, err := service.extraRepo.Create(ctx, models.Extra{
			UserID:      userID,
			Category:    models.CategoryRice,
			Description: fmt.Sprintf("Extra Rice x%d", riceQty),
			Amount:      price.Mul(decimal.NewFromInt(int64(riceQty))),
			Date:        date,
		})
		if err != nil {
			return created, err
		}
		created = append(created, extra)
	}
	if eggQty > 0 {
		price := service.unitPrice(ctx, repository.SettingEggPrice, "12.00")
		extra, err := service.extraRepo.Create(ctx, models.Extra{
			UserID:      userID,
			Category:    models.CategoryEgg,
			Description: fmt.Sprintf("Extra Egg x%d", eggQty),
			Amount:      price.Mul(decimal.NewFromInt(int64(eggQty))),
			Date:        date,
		})
		if err != nil {
			return created, err
		}
		created = append(created, extra)
	}
	return created, nil
}

func (service *BudgetService) AddCustomExtra(ctx context.Context, userID string, amount decimal.Decimal, description string, date string) (models.Extra, error) {
	if !amount.IsPositive() {
		return models.Extra{}, ErrInvalidAmount
	}
	if _, err := service.userRepo.FindByID(ctx, userID); err != nil {
		return models.Extra{}, fmt.Errorf("checking member: %w", err)
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	return service.extraRepo.Create(ctx, models.Extra{
		UserID:      userID,
		Category:    models.CategoryOther,
		Description: description,
		Amount:      amount,
		Date:        date,
	})
}

// EstimatedMealRate is the total spent divided by every meal served so far.
// Zero meals reports zero rather than a division error.
func (service *BudgetService) EstimatedMealRate(ctx context.Context) (decimal.Decimal, error) {
	summary, err := service.Summary(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	totalMeals, err := service.mealEntryRepo.GrandTotal(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("totalling meals: %w", err)
	}
	if totalMeals == 0 {
		return decimal.Zero, nil
	}

	return summary.TotalSpent.Div(decimal.NewFromInt(int64(totalMeals))), nil
}

func (service *BudgetService) unitPrice(ctx context.Context, key string, fallback string) decimal.Decimal {
	value, err := service.settingsRepo.Get(ctx, key)
	if err != nil {
		slog.Warn("reading unit price, using fallback", "key", key, "error", err)
		value = fallback
	}
	price, err := decimal.NewFromString(value)
	if err != nil {
		slog.Warn("parsing unit price, using fallback", "key", key, "value", value, "error", err)
		price, _ = decimal.NewFromString(fallback)
	}
	return price
}
