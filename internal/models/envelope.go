package models

// Envelope wraps every response of the repair-shop API.
type Envelope[T any] struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      T      `json:"data"`
	Timestamp string `json:"timestamp,omitempty"`
}

type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

func (p Page[T]) HasPrevious() bool {
	return !p.First && p.Page > 0
}

func (p Page[T]) HasNext() bool {
	return !p.Last && p.Page+1 < p.TotalPages
}

func (p Page[T]) PreviousPage() int {
	if p.Page <= 0 {
		return 0
	}
	return p.Page - 1
}

func (p Page[T]) NextPage() int {
	return p.Page + 1
}
