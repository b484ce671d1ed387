package entities

// AllowedModel is one of the fixed text-generation models the pipeline may call.
type AllowedModel string

const (
	ModelQwen25  AllowedModel = "qwen2.5:1.5b"
	ModelLlama32 AllowedModel = "llama3.2:1b"
)

var allowedModels = map[AllowedModel]struct{}{
	ModelQwen25:  {},
	ModelLlama32: {},
}

// ParseAllowedModel returns the model when name is on the allow-list.
func ParseAllowedModel(name string) (AllowedModel, bool) {
	model := AllowedModel(name)
	_, ok := allowedModels[model]
	return model, ok
}

// AllowedModels lists the allow-list in a stable order.
func AllowedModels() []AllowedModel {
	return []AllowedModel{ModelQwen25, ModelLlama32}
}
