package tools

import "context"

func approvalTools(rt *Runtime) []Tool {
	return []Tool{
		requestApprovalTool(rt),
	}
}

func requestApprovalTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "request_approval",
		description: "Run the approval cascade (injected provider, then autoApprove, then BROWSER_AUTO_APPROVE) for a risky action and report whether it is approved.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"message":   map[string]interface{}{"type": "string", "description": "human-readable description of the action awaiting approval"},
		}, "sessionId", "message"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("request_approval", args, "sessionId")
			if err != nil {
				return nil, err
			}
			message, err := requireString("request_approval", args, "message")
			if err != nil {
				return nil, err
			}

			approved := rt.Approval.Resolve(ctx, "request_approval", map[string]interface{}{
				"sessionId": sessID,
				"message":   message,
			})

			return map[string]interface{}{"approved": approved}, nil
		},
	}
}
