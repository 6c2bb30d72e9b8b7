package models

import "walletfy-api/internal/entities"

// MonthlySummary totals one calendar month of a user's events
type MonthlySummary struct {
	TotalIncome  float64           `json:"totalIncome"`
	TotalExpense float64           `json:"totalExpense"`
	Balance      float64           `json:"balance"`
	Events       []*entities.Event `json:"events"`
}

// Period lists the months of one year that contain events
type Period struct {
	Year   int   `json:"year"`
	Months []int `json:"months"`
}

// DailyStat is one day-of-month bucket
type DailyStat struct {
	Day     string  `json:"day"`
	DayName string  `json:"dayName"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Total   float64 `json:"total"`
}

// WeeklyStat is one week-of-month bucket
type WeeklyStat struct {
	Week     string  `json:"week"`
	WeekName string  `json:"weekName"`
	Income   float64 `json:"income"`
	Expense  float64 `json:"expense"`
	Total    float64 `json:"total"`
}

// CategoryStat is one category bucket
type CategoryStat struct {
	Category string  `json:"category"`
	Income   float64 `json:"income"`
	Expense  float64 `json:"expense"`
	Total    float64 `json:"total"`
}

// Stats is the chart-ready shape shared by every aggregation.
// Data and Total repeat the expense figures for older clients.
type Stats[T any] struct {
	Labels        []string  `json:"labels"`
	Data          []float64 `json:"data"`
	Total         float64   `json:"total"`
	IncomeData    []float64 `json:"incomeData"`
	ExpenseData   []float64 `json:"expenseData"`
	BalanceData   []float64 `json:"balanceData"`
	TotalIncome   float64   `json:"totalIncome"`
	TotalExpense  float64   `json:"totalExpense"`
	TotalBalance  float64   `json:"totalBalance"`
	DetailedStats []T       `json:"detailedStats"`
}
