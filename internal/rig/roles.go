package rig

// Role names a body part the driver animates.
type Role int

const (
	RoleRoot Role = iota
	RoleHips
	RoleSpine
	RoleChest
	RoleBreastL
	RoleBreastR
	RoleGluteL
	RoleGluteR
	RoleUpperLegL
	RoleUpperLegR
	RoleUpperArmL
	RoleUpperArmR
	RoleNeck
	numRoles
)

var roleNames = [numRoles]string{
	"root", "hips", "spine", "chest",
	"breast.L", "breast.R", "glute.L", "glute.R",
	"upperLeg.L", "upperLeg.R", "upperArm.L", "upperArm.R",
	"neck",
}

func (r Role) String() string {
	if r < 0 || r >= numRoles {
		return "unknown"
	}
	return roleNames[r]
}

// rolePatterns ranks name patterns per role across Mixamo, VRM and MMD
// naming. Earlier patterns win.
var rolePatterns = [numRoles][]RolePattern{
	RoleRoot: {
		{Include: []string{"全ての親", "root"}},
		{Include: []string{"センター", "center"}, Exclude: []string{"eye"}},
	},
	RoleHips: {
		{Include: []string{"hips", "pelvis", "下半身"}, Exclude: []string{"glute", "butt"}},
	},
	RoleSpine: {
		{Include: []string{"spine", "上半身"}, Exclude: []string{"spine1", "spine2", "上半身2", "chest"}},
		{Include: []string{"spine"}},
	},
	RoleChest: {
		{Include: []string{"upperchest", "spine2", "上半身2"}},
		{Include: []string{"chest", "spine1"}, Exclude: []string{"breast", "bust"}},
	},
	RoleBreastL: {
		{Include: []string{"breast_l", "breast.l", "breastl", "leftbreast", "l_breast", "j_sec_l_bust", "左胸"}},
	},
	RoleBreastR: {
		{Include: []string{"breast_r", "breast.r", "breastr", "rightbreast", "r_breast", "j_sec_r_bust", "右胸"}},
	},
	RoleGluteL: {
		{Include: []string{"glute_l", "glute.l", "leftglute", "l_glute", "buttock_l", "leftbuttock", "butt_l", "左尻"}},
	},
	RoleGluteR: {
		{Include: []string{"glute_r", "glute.r", "rightglute", "r_glute", "buttock_r", "rightbuttock", "butt_r", "右尻"}},
	},
	RoleUpperLegL: {
		{Include: []string{"leftupleg", "leftupperleg", "l_upperleg", "thigh_l", "thigh.l", "左足"}, Exclude: []string{"ik", "ｉｋ", "首", "先"}},
	},
	RoleUpperLegR: {
		{Include: []string{"rightupleg", "rightupperleg", "r_upperleg", "thigh_r", "thigh.r", "右足"}, Exclude: []string{"ik", "ｉｋ", "首", "先"}},
	},
	RoleUpperArmL: {
		{Include: []string{"leftarm", "leftupperarm", "l_upperarm", "upperarm_l", "upperarm.l", "左腕"}, Exclude: []string{"forearm", "lower", "twist", "捩"}},
	},
	RoleUpperArmR: {
		{Include: []string{"rightarm", "rightupperarm", "r_upperarm", "upperarm_r", "upperarm.r", "右腕"}, Exclude: []string{"forearm", "lower", "twist", "捩"}},
	},
	RoleNeck: {
		{Include: []string{"neck", "首"}, Exclude: []string{"足首", "手首"}},
	},
}

// Bindings maps roles to joints for one mounted skeleton. Missing roles are
// nil and the regions that need them degrade or skip.
type Bindings [numRoles]Joint

// Bind runs joint discovery once for a skeleton.
func Bind(s Skeleton) Bindings {
	var b Bindings
	if s == nil {
		return b
	}
	for r := Role(0); r < numRoles; r++ {
		b[r] = s.FindJoint(rolePatterns[r]...)
	}
	return b
}

// Get returns the joint bound to r, or nil.
func (b Bindings) Get(r Role) Joint {
	if r < 0 || r >= numRoles {
		return nil
	}
	return b[r]
}

// Found lists the roles that were bound.
func (b Bindings) Found() []Role {
	var roles []Role
	for r, j := range b {
		if j != nil {
			roles = append(roles, Role(r))
		}
	}
	return roles
}

// driven returns every bound joint once.
func (b Bindings) driven() []Joint {
	seen := make(map[Joint]bool)
	var out []Joint
	for _, j := range b {
		if j != nil && !seen[j] {
			seen[j] = true
			out = append(out, j)
		}
	}
	return out
}
