package studio

// Reduce applies an action to state. It performs no I/O and never rejects an
// action; unknown types leave state unchanged.
func Reduce(state State, action Action) State {
	switch action.Type {
	case ActionInitialize:
		state.IsInitialized = true
		state.IsLoading = false
		return state

	case ActionDBInitialize:
		state.IsDBInitialized = true
		state.IsDBInitializationFailed = false
		return state

	case ActionDBInitializationFail:
		state.IsDBInitialized = false
		state.IsDBInitializationFailed = true
		return state

	case ActionSetYAMLHandler:
		state.YAMLHandler = action.Response.YAMLHandler
		return state

	case ActionUpdateTemplateView:
		if action.Response.TemplateView != nil {
			state.TemplateView = *action.Response.TemplateView
		}
		return state

	case ActionUpdateTemplate:
		r := action.Response
		return merge(state, StatePatch{
			Template:          r.Template,
			TemplateMetadata:  r.TemplateMetadata,
			TemplateYAML:      r.TemplateYAML,
			IsUpdated:         r.IsUpdated,
			IsUpdatedMetadata: r.IsUpdatedMetadata,
		})

	case ActionFetching:
		state.IsLoading = true
		state.IsBETemplateUpdated = false
		state.IsUpdated = false
		return state

	case ActionLoading:
		state.IsLoading = true
		return state

	case ActionSuccess, ActionError:
		// Error shares the merge path: cache fallbacks ride on Error too
		state.IsLoading = false
		return merge(state, action.Response)

	case ActionIntermittentLoading:
		if action.Response.IsIntermittentLoading != nil {
			state.IsIntermittentLoading = *action.Response.IsIntermittentLoading
		}
		return state

	default:
		return state
	}
}
