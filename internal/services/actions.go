package services

// ResponseActionInfo describes one entry in the fixed response action catalog.
type ResponseActionInfo struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// responseActionCatalog is the closed set of recognized simulated response
// actions. Names and descriptions are part of the API contract shown to
// analysts and must stay stable.
var responseActionCatalog = []ResponseActionInfo{
	{
		Type: "disable_user",
		Name: "Disable User Account",
		Description: "In production, this would disable the user account in Azure AD, preventing all future sign-ins. " +
			"The user would need admin intervention to re-enable the account.",
	},
	{
		Type: "revoke_sessions",
		Name: "Revoke All Active Sessions",
		Description: "In production, this would invalidate all active tokens and sessions for the user, forcing them to re-authenticate. " +
			"This would immediately log them out of all devices and applications.",
	},
	{
		Type: "password_reset",
		Name: "Require Password Reset",
		Description: "In production, this would force the user to reset their password on next sign-in. " +
			"This helps ensure the account hasn't been compromised and the password is changed.",
	},
	{
		Type: "isolate_endpoint",
		Name: "Isolate Endpoint",
		Description: "In production, this would isolate the device from the network, preventing it from accessing corporate resources while allowing investigation. " +
			"This is typically done via Microsoft Defender for Endpoint or similar EDR solution.",
	},
	{
		Type: "block_oauth",
		Name: "Block OAuth Application",
		Description: "In production, this would revoke consent and block the OAuth application, preventing it from accessing user data. " +
			"This would also revoke all existing tokens issued to the application.",
	},
}

// LookupResponseAction resolves an action type against the fixed catalog.
func LookupResponseAction(actionType string) (ResponseActionInfo, bool) {
	for _, info := range responseActionCatalog {
		if info.Type == actionType {
			return info, true
		}
	}
	return ResponseActionInfo{}, false
}

// ResponseActionCatalog returns the full catalog in its fixed order.
func ResponseActionCatalog() []ResponseActionInfo {
	catalog := make([]ResponseActionInfo, len(responseActionCatalog))
	copy(catalog, responseActionCatalog)
	return catalog
}
