package extract

// Record holds one resolved value per configured label for a single document.
// Every label is present; labels never matched hold the empty string.
type Record struct {
	labels []string
	values map[string]string
}

// NewRecord creates a record with an empty value for every label
func NewRecord(labels []string) Record {
	values := make(map[string]string, len(labels))
	for _, label := range labels {
		values[label] = ""
	}
	kept := make([]string, len(labels))
	copy(kept, labels)
	return Record{labels: kept, values: values}
}

// Get returns the value for a label and whether the label is configured
func (r Record) Get(label string) (string, bool) {
	v, ok := r.values[label]
	return v, ok
}

// Value returns the value for a label, empty when absent
func (r Record) Value(label string) string {
	return r.values[label]
}

// Labels returns the configured labels in column order
func (r Record) Labels() []string {
	out := make([]string, len(r.labels))
	copy(out, r.labels)
	return out
}

// Values returns a copy of the label to value mapping
func (r Record) Values() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Row returns the values in label order
func (r Record) Row() []string {
	row := make([]string, len(r.labels))
	for i, label := range r.labels {
		row[i] = r.values[label]
	}
	return row
}

// Filled counts labels with a non-empty value
func (r Record) Filled() int {
	n := 0
	for _, v := range r.values {
		if v != "" {
			n++
		}
	}
	return n
}

func (r Record) set(label, value string) {
	r.values[label] = value
}
