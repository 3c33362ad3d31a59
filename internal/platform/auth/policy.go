package auth

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Actions and resources the policy engine knows about.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	ResourcePatient         = "patient"
	ResourcePrescription    = "prescription"
	ResourceAppointment     = "appointment"
	ResourceClinicalHistory = "clinical_history"
	ResourceUser            = "user"
)

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allow  bool
	Reason string
}

// policyRule names the roles allowed to perform an action on a resource.
// Absent entries fall through to the default: any authenticated caller.
var policyRules = map[string][]string{
	key(ActionUpdate, ResourcePatient):      {"admin", "therapist"},
	key(ActionDelete, ResourcePatient):      {"admin"},
	key(ActionDelete, ResourcePrescription): {"admin", "therapist"},
	key(ActionRead, ResourceUser):           {"admin"},
	key(ActionCreate, ResourceUser):         {"admin"},
	key(ActionUpdate, ResourceUser):         {"admin"},
	key(ActionDelete, ResourceUser):         {"admin"},
}

func key(action, resource string) string {
	return action + ":" + resource
}

// Decide evaluates whether a caller holding the given roles may perform
// action on resource. It is a pure function of its arguments: callers adapt
// the request to (roles, action, resource) and the rules live in one place.
func Decide(roles []string, action, resource string) Decision {
	allowed, ok := policyRules[key(action, resource)]
	if !ok {
		// No specific rule: any authenticated caller may proceed.
		return Decision{Allow: true}
	}

	for _, required := range allowed {
		for _, has := range roles {
			if has == required {
				return Decision{Allow: true}
			}
		}
	}

	return Decision{
		Allow:  false,
		Reason: fmt.Sprintf("%s on %s requires one of roles %v", action, resource, allowed),
	}
}

// RequirePolicy returns middleware that enforces the policy rule for
// (action, resource) against the caller's roles. Violations surface as 403.
func RequirePolicy(action, resource string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles := RolesFromContext(c.Request().Context())
			decision := Decide(roles, action, resource)
			if !decision.Allow {
				return echo.NewHTTPError(http.StatusForbidden, decision.Reason)
			}
			return next(c)
		}
	}
}
