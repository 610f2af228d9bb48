package query

// Pagination describes the page actually served, after clamping, plus
// the total item/page counts needed to build the response envelope.
type Pagination struct {
	CurrentPage int
	PerPage     int
	TotalItems  int
	TotalPages  int
}

// ApplyPagination slices records into the requested page, clamping page
// and perPage per spec.md §4.1: "per-page < 1 clamps to 1; page < 1
// clamps to 1; per-page exceeding the configured maximum clamps to the
// maximum."
func ApplyPagination(records []Record, page, perPage, maxPerPage int) ([]Record, Pagination) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}

	total := len(records)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return records[start:end], Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		TotalItems:  total,
		TotalPages:  totalPages,
	}
}
