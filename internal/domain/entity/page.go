package entity

import "math"

// Page - единая форма ответа чтения в обоих режимах.
type Page struct {
	Items      []Record `json:"items"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	TotalPages int      `json:"totalPages"`
}

// Params - параметры чтения списка.
type Params struct {
	ID      string            // точечное чтение: 0 или 1 запись
	Page    int               // с 1
	Limit   int               // размер страницы
	Search  string            // подстрока без учёта регистра
	Date    string            // YYYY-MM-DD, календарный день в локальной зоне
	Filters map[string]string // точное совпадение по дополнительным полям
}

// Normalize подставляет значения по умолчанию и ограничивает размер страницы.
func (p Params) Normalize(defaultLimit, maxLimit int) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Limit <= 0 {
		p.Limit = 1
	}
	return p
}

// Paginate возвращает срез [(page-1)*limit, page*limit) и метаданные страницы.
// Параметры должны быть нормализованы.
func Paginate(all []Record, page, limit int) Page {
	total := len(all)
	start := Offset(page, limit)
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	items := make([]Record, 0, end-start)
	items = append(items, all[start:end]...)

	return Page{
		Items:      items,
		Total:      total,
		Page:       page,
		TotalPages: TotalPages(total, limit),
	}
}

// Offset - (page-1)*limit с насыщением до math.MaxInt вместо переполнения.
func Offset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// TotalPages - ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// EmptyPage - страница без записей.
func EmptyPage(page int) Page {
	if page < 1 {
		page = 1
	}
	return Page{Items: []Record{}, Page: page}
}
