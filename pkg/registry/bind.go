package registry

// Ambient holds the pipeline state a step may ask for by name.
type Ambient struct {
	Functions any
	Variables map[string]any
	Error     error
	Common    map[string]any
}

// Bind returns params plus the ambient values named in accepts. Values the
// caller set explicitly are never replaced, and names a step does not
// accept are never added.
func Bind(params Params, accepts []string, amb Ambient) Params {
	out := params.Clone()
	for _, name := range accepts {
		if _, set := out[name]; set {
			continue
		}
		switch name {
		case "functions":
			out[name] = amb.Functions
		case "variables":
			out[name] = amb.Variables
		case "error":
			if amb.Error != nil {
				out[name] = amb.Error
			}
		default:
			if v, ok := amb.Common[name]; ok {
				out[name] = v
			}
		}
	}
	return out
}
