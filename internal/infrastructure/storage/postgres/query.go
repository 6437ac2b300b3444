package postgres

import (
	"fmt"
	"sort"
	"strings"

	"storekeeper/internal/domain/entity"
	"storekeeper/internal/domain/resource"
)

// where собирает условие выборки и аргументы. Имена полей JSON передаются
// параметрами, в текст запроса попадают только плейсхолдеры.
type where struct {
	conds []string
	args  []any
}

func newWhere(ownerID string, t entity.Type) *where {
	w := &where{}
	w.add("resource = %s", string(t))
	w.add("owner_id = %s", ownerID)
	return w
}

func (w *where) add(format string, values ...any) {
	holders := make([]any, len(values))
	for i, v := range values {
		holders[i] = w.arg(v)
	}
	w.conds = append(w.conds, fmt.Sprintf(format, holders...))
}

func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

// search ищет подстроку в полях entity.SearchFields и в имени контрагента.
// Ключи JSON и прочие поля не участвуют.
func (w *where) search(t entity.Type, term string) {
	pattern := w.arg("%" + escapeLike(term) + "%")

	ors := make([]string, 0, len(entity.SearchFields)+1)
	for _, field := range entity.SearchFields {
		ors = append(ors, fmt.Sprintf(`data->>%s ILIKE %s ESCAPE '\'`, w.arg(field), pattern))
	}
	if rel := entity.Describe(t).Counterparty; rel != nil {
		ors = append(ors, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM records cp WHERE cp.resource = %s AND cp.owner_id = records.owner_id`+
				` AND cp.id = records.data->>%s AND cp.data->>%s ILIKE %s ESCAPE '\')`,
			w.arg(string(rel.Type)), w.arg(rel.Field), w.arg(entity.FieldName), pattern,
		))
	}
	w.conds = append(w.conds, "("+strings.Join(ors, " OR ")+")")
}

func (w *where) next() string {
	return fmt.Sprintf("$%d", len(w.args)+1)
}

func (w *where) String() string {
	return strings.Join(w.conds, " AND ")
}

func buildWhere(ownerID string, t entity.Type, f resource.Filter) *where {
	w := newWhere(ownerID, t)

	if s := strings.TrimSpace(f.Search); s != "" {
		w.search(t, s)
	}
	if f.Date != "" {
		field := f.DateField
		if field == "" {
			field = entity.FieldCreatedAt
		}
		w.add("left(data->>%s, 10) = %s", field, f.Date)
	}

	keys := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.add("data->>%s = %s", k, f.Fields[k])
	}
	return w
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
