package types

// JSONMap is a free-form JSON object stored in jsonb columns.
type JSONMap map[string]any
