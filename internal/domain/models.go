package domain

// Datum is a single cell of a statement table, labelled by its column
type Datum struct {
	ColumnName string `json:"column_name"`
	Value      string `json:"value"`
}

// Row is one table row. IsTotal marks total or summary rows.
type Row struct {
	Data    []Datum `json:"data"`
	IsTotal bool    `json:"is_total"`
}

// Table is a table found on a statement page
type Table struct {
	// FullHeading is the table heading prefixed with its parent section headings
	FullHeading string `json:"full_heading"`
	Rows        []Row  `json:"rows"`
}

// TableSet holds all tables extracted from one page
type TableSet struct {
	Tables []Table `json:"tables"`
}

// Holding is an individual investment position
type Holding struct {
	Name      string  `json:"name"`
	CostBasis float64 `json:"cost_basis"`
}

// HoldingSet holds the holdings derived from one page's tables
type HoldingSet struct {
	Holdings []Holding `json:"holdings"`
}

// SummaryRecord is the account-level information derived from all tables of a statement
type SummaryRecord struct {
	AccountOwnerName string  `json:"account_owner_name"`
	PortfolioValue   float64 `json:"portfolio_value"`
}

// ExtractionResult is the response document returned to callers
type ExtractionResult struct {
	AccountOwnerName string    `json:"account_owner_name"`
	PortfolioValue   float64   `json:"portfolio_value"`
	Holdings         []Holding `json:"holdings"`
}

// NewExtractionResult merges a summary with the flattened holdings.
// Holdings is never nil so it always serializes as a JSON array.
func NewExtractionResult(summary SummaryRecord, holdings []Holding) *ExtractionResult {
	if holdings == nil {
		holdings = []Holding{}
	}
	return &ExtractionResult{
		AccountOwnerName: summary.AccountOwnerName,
		PortfolioValue:   summary.PortfolioValue,
		Holdings:         holdings,
	}
}

// PageImage represents a single rasterized PDF page
type PageImage struct {
	PageNumber int    // 1-based
	Data       []byte // JPEG encoded
	Width      int
	Height     int
}

// FlattenTables concatenates the tables of every page, in page order then table order.
func FlattenTables(pages []TableSet) []Table {
	tables := make([]Table, 0)
	for _, page := range pages {
		tables = append(tables, page.Tables...)
	}
	return tables
}

// FlattenHoldings concatenates the holdings of every page in page order.
func FlattenHoldings(pages []HoldingSet) []Holding {
	holdings := make([]Holding, 0)
	for _, page := range pages {
		holdings = append(holdings, page.Holdings...)
	}
	return holdings
}
