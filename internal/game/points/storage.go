package points

// Storage backs the stored value of a Points.
type Storage interface {
	Load() int
	Store(v int)
}

// MemoryStorage keeps the value in memory.
type MemoryStorage struct {
	value int
}

// NewMemoryStorage returns a MemoryStorage holding v.
func NewMemoryStorage(v int) *MemoryStorage {
	return &MemoryStorage{value: v}
}

func (m *MemoryStorage) Load() int   { return m.value }
func (m *MemoryStorage) Store(v int) { m.value = v }

// FieldStorage proxies the value onto a field owned by an external record,
// typically a persisted player record.
type FieldStorage struct {
	field *int
}

// NewFieldStorage returns a Storage that reads and writes *field.
//
// Precondition: field must be non-nil.
func NewFieldStorage(field *int) *FieldStorage {
	return &FieldStorage{field: field}
}

func (f *FieldStorage) Load() int   { return *f.field }
func (f *FieldStorage) Store(v int) { *f.field = v }
