package service

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"walletfy-api/internal/entities"
	"walletfy-api/internal/models"
	"walletfy-api/internal/repository"
)

// MonthWindow is the inclusive range of Unix seconds covering one calendar month
type MonthWindow struct {
	Year  int
	Month int
	Start time.Time // first second of the month
	End   time.Time // 23:59:59 on the last day
}

// NewMonthWindow builds the window for year/month in loc. Values that are zero or out of range
// fall back to the month containing now.
func NewMonthWindow(year, month int, now time.Time, loc *time.Location) MonthWindow {
	now = now.In(loc)
	if year <= 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	return MonthWindow{
		Year:  year,
		Month: month,
		Start: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc),
		End:   time.Date(year, time.Month(month)+1, 0, 23, 59, 59, 0, loc),
	}
}

// Filter selects a user's events inside the window
func (w MonthWindow) Filter(userID string) repository.EventFilter {
	from, to := w.Start.Unix(), w.End.Unix()
	return repository.EventFilter{UserID: userID, From: &from, To: &to}
}

// tally accumulates one bucket; total is income minus expense
type tally struct {
	income, expense, total float64
}

func (t *tally) add(e *entities.Event) {
	if e.IsIncome() {
		t.income += e.Amount
		t.total += e.Amount
	} else {
		t.expense += e.Amount
		t.total -= e.Amount
	}
}

// DailyStats groups events by day of month, ascending, listing only days with events
func DailyStats(events []*entities.Event, loc *time.Location) models.Stats[models.DailyStat] {
	tallies := map[int]*tally{}
	var days []int
	for _, e := range events {
		day := time.Unix(e.Date, 0).In(loc).Day()
		if _, ok := tallies[day]; !ok {
			tallies[day] = &tally{}
			days = append(days, day)
		}
		tallies[day].add(e)
	}
	sort.Ints(days)

	stats := make([]models.DailyStat, 0, len(days))
	for _, day := range days {
		t := tallies[day]
		stats = append(stats, models.DailyStat{
			Day:     strconv.Itoa(day),
			DayName: fmt.Sprintf("Día %d", day),
			Income:  t.income,
			Expense: t.expense,
			Total:   t.total,
		})
	}
	return buildStats(stats, func(s models.DailyStat) (string, float64, float64, float64) {
		return s.DayName, s.Income, s.Expense, s.Total
	})
}

// WeekOfMonth numbers weeks Sunday-first: ceil((day + weekday of the 1st) / 7)
func WeekOfMonth(day int, firstWeekday time.Weekday) int {
	return int(math.Ceil(float64(day+int(firstWeekday)) / 7))
}

// WeeklyStats groups the events of window by week of month, ascending
func WeeklyStats(events []*entities.Event, window MonthWindow) models.Stats[models.WeeklyStat] {
	loc := window.Start.Location()
	firstWeekday := window.Start.Weekday()

	tallies := map[int]*tally{}
	var weeks []int
	for _, e := range events {
		week := WeekOfMonth(time.Unix(e.Date, 0).In(loc).Day(), firstWeekday)
		if _, ok := tallies[week]; !ok {
			tallies[week] = &tally{}
			weeks = append(weeks, week)
		}
		tallies[week].add(e)
	}
	sort.Ints(weeks)

	stats := make([]models.WeeklyStat, 0, len(weeks))
	for _, week := range weeks {
		t := tallies[week]
		stats = append(stats, models.WeeklyStat{
			Week:     strconv.Itoa(week),
			WeekName: fmt.Sprintf("Semana %d", week),
			Income:   t.income,
			Expense:  t.expense,
			Total:    t.total,
		})
	}
	return buildStats(stats, func(s models.WeeklyStat) (string, float64, float64, float64) {
		return s.WeekName, s.Income, s.Expense, s.Total
	})
}

// CategoryStats groups events by category, largest absolute balance first.
// Ties keep the order in which categories first appear.
func CategoryStats(events []*entities.Event) models.Stats[models.CategoryStat] {
	tallies := map[string]*tally{}
	var categories []string
	for _, e := range events {
		category := e.CategoryLabel()
		if _, ok := tallies[category]; !ok {
			tallies[category] = &tally{}
			categories = append(categories, category)
		}
		tallies[category].add(e)
	}

	stats := make([]models.CategoryStat, 0, len(categories))
	for _, category := range categories {
		t := tallies[category]
		stats = append(stats, models.CategoryStat{
			Category: category,
			Income:   t.income,
			Expense:  t.expense,
			Total:    t.total,
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return math.Abs(stats[i].Total) > math.Abs(stats[j].Total)
	})

	return buildStats(stats, func(s models.CategoryStat) (string, float64, float64, float64) {
		return s.Category, s.Income, s.Expense, s.Total
	})
}

// Periods lists, per year, the months containing events. Years descend, months ascend.
func Periods(events []*entities.Event, loc *time.Location) []models.Period {
	months := map[int]map[int]bool{}
	for _, e := range events {
		t := time.Unix(e.Date, 0).In(loc)
		if months[t.Year()] == nil {
			months[t.Year()] = map[int]bool{}
		}
		months[t.Year()][int(t.Month())] = true
	}

	periods := make([]models.Period, 0, len(months))
	for year, set := range months {
		period := models.Period{Year: year, Months: make([]int, 0, len(set))}
		for m := range set {
			period.Months = append(period.Months, m)
		}
		sort.Ints(period.Months)
		periods = append(periods, period)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Year > periods[j].Year })
	return periods
}

// buildStats lays bucket figures out as parallel chart series
func buildStats[T any](buckets []T, figures func(T) (label string, income, expense, total float64)) models.Stats[T] {
	stats := models.Stats[T]{
		Labels:        make([]string, 0, len(buckets)),
		Data:          make([]float64, 0, len(buckets)),
		IncomeData:    make([]float64, 0, len(buckets)),
		ExpenseData:   make([]float64, 0, len(buckets)),
		BalanceData:   make([]float64, 0, len(buckets)),
		DetailedStats: buckets,
	}
	for _, b := range buckets {
		label, income, expense, total := figures(b)
		stats.Labels = append(stats.Labels, label)
		stats.Data = append(stats.Data, expense)
		stats.IncomeData = append(stats.IncomeData, income)
		stats.ExpenseData = append(stats.ExpenseData, expense)
		stats.BalanceData = append(stats.BalanceData, total)
		stats.TotalIncome += income
		stats.TotalExpense += expense
	}
	stats.Total = stats.TotalExpense
	stats.TotalBalance = stats.TotalIncome - stats.TotalExpense
	return stats
}
