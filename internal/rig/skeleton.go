// Package rig drives a humanoid skeleton from gesture state: bone discovery
// by name, per-region spring jiggle, breathing, whole-body orientation and
// movement presets.
package rig

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Euler is a per-axis rotation in radians.
type Euler struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns e+o.
func (e Euler) Add(o Euler) Euler {
	return Euler{X: e.X + o.X, Y: e.Y + o.Y, Z: e.Z + o.Z}
}

// Joint is one bone the driver can rotate.
type Joint interface {
	Name() string
	// Rest is the bind-pose rotation the driver offsets from.
	Rest() Euler
	Rotation() Euler
	SetRotation(Euler)
}

// Skeleton exposes a model's joints to the driver. Alternative rigs and
// formats plug in by implementing it.
type Skeleton interface {
	Joints() []Joint
	// FindJoint returns the first joint matching the patterns in rank order,
	// or nil when none does.
	FindJoint(patterns ...RolePattern) Joint
}

// RolePattern matches a bone name by case-insensitive substring. A name
// matches when it contains any Include entry and none of the Exclude ones.
type RolePattern struct {
	Include []string
	Exclude []string
}

// Match reports whether name satisfies the pattern.
func (p RolePattern) Match(name string) bool {
	n := strings.ToLower(name)
	for _, ex := range p.Exclude {
		if strings.Contains(n, strings.ToLower(ex)) {
			return false
		}
	}
	for _, in := range p.Include {
		if strings.Contains(n, strings.ToLower(in)) {
			return true
		}
	}
	return false
}

// FindJoint searches joints for the highest-ranked pattern that matches.
// Patterns are tried in order and, within a pattern, joints in skeleton
// order; the first hit wins.
func FindJoint(joints []Joint, patterns ...RolePattern) Joint {
	for _, p := range patterns {
		for _, j := range joints {
			if p.Match(j.Name()) {
				return j
			}
		}
	}
	return nil
}

// Bone is an in-memory Joint.
type Bone struct {
	mu       sync.RWMutex
	name     string
	rest     Euler
	rotation Euler
}

// NewBone creates a bone at its rest rotation.
func NewBone(name string, rest Euler) *Bone {
	return &Bone{name: name, rest: rest, rotation: rest}
}

func (b *Bone) Name() string { return b.name }

func (b *Bone) Rest() Euler { return b.rest }

func (b *Bone) Rotation() Euler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rotation
}

func (b *Bone) SetRotation(e Euler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rotation = e
}

// Bones is an in-memory Skeleton, loaded from a bone list. The browser
// renderer owns the real mesh and mirrors the rotations streamed to it.
type Bones struct {
	bones  []*Bone
	joints []Joint
}

// NewBones creates a skeleton of bones with zero rest rotation.
func NewBones(names ...string) *Bones {
	b := &Bones{}
	for _, n := range names {
		b.add(NewBone(n, Euler{}))
	}
	return b
}

func (b *Bones) add(bone *Bone) {
	b.bones = append(b.bones, bone)
	b.joints = append(b.joints, bone)
}

// Joints returns the bones in declaration order.
func (b *Bones) Joints() []Joint {
	return b.joints
}

// FindJoint implements Skeleton.
func (b *Bones) FindJoint(patterns ...RolePattern) Joint {
	return FindJoint(b.joints, patterns...)
}

// Bone returns the bone with the exact name, or nil.
func (b *Bones) Bone(name string) *Bone {
	for _, bone := range b.bones {
		if bone.name == name {
			return bone
		}
	}
	return nil
}

type boneFile struct {
	Bones []struct {
		Name string `json:"name"`
		Rest Euler  `json:"rest"`
	} `json:"bones"`
}

// LoadBones reads a skeleton description:
//
//	{"bones":[{"name":"mixamorig:Hips","rest":{"x":0,"y":0,"z":0}}, ...]}
func LoadBones(r io.Reader) (*Bones, error) {
	var f boneFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode skeleton: %w", err)
	}
	if len(f.Bones) == 0 {
		return nil, fmt.Errorf("decode skeleton: no bones")
	}

	b := &Bones{}
	seen := make(map[string]bool, len(f.Bones))
	for _, entry := range f.Bones {
		if entry.Name == "" {
			return nil, fmt.Errorf("decode skeleton: bone with empty name")
		}
		if seen[entry.Name] {
			return nil, fmt.Errorf("decode skeleton: duplicate bone %q", entry.Name)
		}
		seen[entry.Name] = true
		b.add(NewBone(entry.Name, entry.Rest))
	}
	return b, nil
}
