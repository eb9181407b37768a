package hook

// settingsSchema describes the shape patch_settings_json relies on
// (hooks.PreToolUse as an array of {matcher, hooks:[{type, command}]}
// objects), used to sanity-check a settings.json document before it's
// written back to disk.
var settingsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"hooks": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"PreToolUse": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"matcher": map[string]any{"type": "string"},
							"hooks": map[string]any{
								"type": "array",
								"items": map[string]any{
									"type": "object",
									"properties": map[string]any{
										"type":    map[string]any{"type": "string"},
										"command": map[string]any{"type": "string"},
									},
									"required": []any{"type", "command"},
								},
							},
						},
					},
				},
			},
		},
	},
}
