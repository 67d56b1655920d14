package services

// Variables is an ordered set of variable bindings. Keys keep the position of
// their first insertion; a repeated key replaces the earlier value.
type Variables struct {
	keys   []string
	values map[string]string
}

func NewVariables() *Variables {
	return &Variables{values: make(map[string]string)}
}

func (v *Variables) Set(key, value string) {
	if _, ok := v.values[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.values[key] = value
}

func (v *Variables) Get(key string) (string, bool) {
	value, ok := v.values[key]
	return value, ok
}

func (v *Variables) Len() int {
	return len(v.keys)
}

func (v *Variables) Each(fn func(key, value string)) {
	for _, key := range v.keys {
		fn(key, v.values[key])
	}
}
