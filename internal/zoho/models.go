package zoho

// Project is a Zoho Books project as returned by GET /projects.
// Only the fields the dashboard renders are decoded.
type Project struct {
	ProjectID    string  `json:"project_id"`
	ProjectName  string  `json:"project_name"`
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Status       string  `json:"status"`
	BillingType  string  `json:"billing_type"`
	Rate         float64 `json:"rate"`
	Description  string  `json:"description"`
	CreatedTime  string  `json:"created_time"`
}

// Invoice is a Zoho Books invoice as returned by GET /invoices.
type Invoice struct {
	InvoiceID     string  `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	CustomerID    string  `json:"customer_id"`
	CustomerName  string  `json:"customer_name"`
	ProjectID     string  `json:"project_id"`
	ProjectName   string  `json:"project_name"`
	Status        string  `json:"status"`
	Date          string  `json:"date"`
	DueDate       string  `json:"due_date"`
	Total         float64 `json:"total"`
	Balance       float64 `json:"balance"`
	CurrencyCode  string  `json:"currency_code"`
}

// pageContext is Zoho's pagination envelope.
type pageContext struct {
	Page        int  `json:"page"`
	PerPage     int  `json:"per_page"`
	HasMorePage bool `json:"has_more_page"`
}

type projectsPage struct {
	Projects    []Project   `json:"projects"`
	PageContext pageContext `json:"page_context"`
}

type invoicesPage struct {
	Invoices    []Invoice   `json:"invoices"`
	PageContext pageContext `json:"page_context"`
}
