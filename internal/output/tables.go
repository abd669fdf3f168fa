package output

import (
	"strconv"

	"github.com/rgehrsitz/kpisynth/internal/domain"
)

// Table names shared by the CSV, XLSX and SQL sinks
const (
	TableOrgHierarchy = "org_hierarchy"
	TableAccountsDim  = "accounts_dim"
	TableSalesMonthly = "sales_monthly"
)

const dateLayout = "2006-01-02"

// Table is one flat output table
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Tables returns the three flat tables of a dataset in output order
func Tables(ds *domain.Dataset) []Table {
	return []Table{OrgHierarchyTable(ds), AccountsDimTable(ds), SalesMonthlyTable(ds)}
}

// OrgHierarchyTable lists one row per salesperson with the reporting line
func OrgHierarchyTable(ds *domain.Dataset) Table {
	t := Table{
		Name: TableOrgHierarchy,
		Header: []string{
			"country_id", "country_manager_id", "area_id", "area_manager_id", "area_name",
			"aob_band", "salesperson_id", "city", "tenure_years",
		},
	}
	for _, sp := range ds.Salespeople {
		t.Rows = append(t.Rows, []string{
			sp.CountryID,
			sp.CountryManagerID,
			sp.AreaID,
			sp.AreaManagerID,
			sp.AreaName,
			string(sp.Band),
			sp.ID,
			sp.City,
			strconv.Itoa(sp.TenureYears),
		})
	}
	return t
}

// AccountsDimTable lists one row per generated account
func AccountsDimTable(ds *domain.Dataset) Table {
	t := Table{
		Name:   TableAccountsDim,
		Header: []string{"account_id", "account_name", "tier", "city", "salesperson_id", "is_new"},
	}
	for _, acc := range ds.Accounts {
		t.Rows = append(t.Rows, []string{
			acc.ID,
			acc.Name,
			strconv.Itoa(int(acc.Tier)),
			acc.City,
			acc.SalespersonID,
			flag(acc.IsNew),
		})
	}
	return t
}

// SalesMonthlyTable lists the fact rows ordered by account then date
func SalesMonthlyTable(ds *domain.Dataset) Table {
	t := Table{
		Name: TableSalesMonthly,
		Header: []string{
			"date", "year", "month", "quarter", "country_id", "area_id", "salesperson_id",
			"account_id", "tier", "plan_revenue", "actual_revenue", "last_year_revenue",
			"windfall_flag", "shortfall_flag", "sales_driven", "healthy_prev3", "actual_adj",
		},
	}
	for _, r := range ds.Records {
		t.Rows = append(t.Rows, []string{
			r.Period.Date.Format(dateLayout),
			strconv.Itoa(r.Period.Year),
			strconv.Itoa(int(r.Period.Month)),
			string(r.Period.Quarter),
			r.CountryID,
			r.AreaID,
			r.SalespersonID,
			r.AccountID,
			strconv.Itoa(int(r.Tier)),
			r.PlanRevenue.StringFixed(2),
			r.ActualRevenue.StringFixed(2),
			r.LastYearRevenue.StringFixed(2),
			flag(r.Windfall),
			flag(r.Shortfall),
			flag(r.SalesDriven),
			flag(r.HealthyPrevWindow),
			r.AdjustedActual.StringFixed(2),
		})
	}
	return t
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
