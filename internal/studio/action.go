package studio

// ActionType tags a state transition
type ActionType string

const (
	ActionInitialize           ActionType = "Initialize"
	ActionDBInitialize         ActionType = "DBInitialize"
	ActionDBInitializationFail ActionType = "DBInitializationFail"
	ActionSetYAMLHandler       ActionType = "SetYamlHandler"
	ActionUpdateTemplateView   ActionType = "UpdateTemplateView"
	ActionUpdateTemplate       ActionType = "UpdateTemplate"
	ActionFetching             ActionType = "Fetching"
	ActionLoading              ActionType = "Loading"
	ActionSuccess              ActionType = "Success"
	ActionError                ActionType = "Error"
	ActionIntermittentLoading  ActionType = "IntermittentLoading"
)

// Action is a {type, response} message consumed by Reduce
type Action struct {
	Type     ActionType
	Response StatePatch
}

func Initialize() Action {
	return Action{Type: ActionInitialize}
}

func DBInitialize() Action {
	return Action{Type: ActionDBInitialize}
}

func DBInitializationFail() Action {
	return Action{Type: ActionDBInitializationFail}
}

// SetYAMLHandler replaces the handler; nil clears it
func SetYAMLHandler(handler YAMLHandler) Action {
	return Action{Type: ActionSetYAMLHandler, Response: StatePatch{YAMLHandler: handler}}
}

func UpdateTemplateView(view TemplateView) Action {
	return Action{Type: ActionUpdateTemplateView, Response: StatePatch{TemplateView: &view}}
}

// UpdateTemplateAction patches the template slice only (template, metadata, dirty flags)
func UpdateTemplateAction(response StatePatch) Action {
	return Action{Type: ActionUpdateTemplate, Response: response}
}

func Fetching() Action {
	return Action{Type: ActionFetching}
}

func Loading() Action {
	return Action{Type: ActionLoading}
}

func Success(response StatePatch) Action {
	return Action{Type: ActionSuccess, Response: response}
}

func Error(response StatePatch) Action {
	return Action{Type: ActionError, Response: response}
}

func IntermittentLoading(loading bool) Action {
	return Action{Type: ActionIntermittentLoading, Response: StatePatch{IsIntermittentLoading: &loading}}
}
