// Package pagination turns (page, limit) pairs into query offsets and result
// metadata. Bounds are validated upstream; page and limit are assumed >= 1.
package pagination

type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Metadata struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	LastPage int   `json:"lastPage"`
}

// NewMetadata computes lastPage = ceil(total/limit).
func NewMetadata(total int64, p Params) Metadata {
	last := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Metadata{Total: total, Page: p.Page, LastPage: last}
}
