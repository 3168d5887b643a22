// Package inventory holds the household group directory and the item
// repository. Every repository call takes the group id explicitly.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/fridgly/internal/identity"
	"github.com/dukerupert/fridgly/internal/model"
	"github.com/dukerupert/fridgly/internal/store"
)

// DirectoryStore persists users and the group created for them.
// CreateWithGroup must write both records as one unit and report
// store.ErrAlreadyExists when the user id is taken.
type DirectoryStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	CreateWithGroup(ctx context.Context, u *model.User, g *model.Group) error
}

// GroupSelector picks the active group of a returning user. It reports
// false when the user has no group to pick.
type GroupSelector func(u *model.User) (string, bool)

// FirstGroup selects the user's earliest membership.
func FirstGroup(u *model.User) (string, bool) {
	if len(u.Groups) == 0 || u.Groups[0] == "" {
		return "", false
	}
	return u.Groups[0], true
}

// Membership is the outcome of resolving an identity.
type Membership struct {
	User    *model.User
	GroupID string
	Created bool
}

type Directory struct {
	users DirectoryStore
	opts  options
}

func NewDirectory(users DirectoryStore, opts ...Option) *Directory {
	return &Directory{users: users, opts: buildOptions(opts)}
}

// ResolveGroupForIdentity returns the active group of id, creating the
// user and a new group on first sign-in.
func (d *Directory) ResolveGroupForIdentity(ctx context.Context, id identity.Identity) (string, error) {
	m, err := d.Resolve(ctx, id)
	if err != nil {
		return "", err
	}
	return m.GroupID, nil
}

func (d *Directory) Resolve(ctx context.Context, id identity.Identity) (Membership, error) {
	defer d.opts.metrics.ObserveOp("resolve_group", time.Now())

	if id.ID == "" {
		return Membership{}, fmt.Errorf("%w: empty identity id", ErrNoGroupAssociation)
	}

	u, err := d.users.GetByID(ctx, id.ID)
	if err != nil {
		d.opts.metrics.IncStoreError("resolve_group")
		return Membership{}, persistence("get user", err)
	}
	if u != nil {
		return d.membership(u)
	}

	now := d.opts.now()
	u = &model.User{
		ID:        id.ID,
		Email:     id.Email,
		Name:      id.DisplayName,
		CreatedAt: now,
	}
	g := &model.Group{
		Name:      model.GroupName(id.Name()),
		CreatedBy: id.ID,
		CreatedAt: now,
	}

	err = d.users.CreateWithGroup(ctx, u, g)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Another sign-in for the same identity won the race.
		d.opts.logger.Debug("user created concurrently, re-reading", "user_id", id.ID)
		u, err = d.users.GetByID(ctx, id.ID)
		if err != nil {
			d.opts.metrics.IncStoreError("resolve_group")
			return Membership{}, persistence("get user", err)
		}
		if u == nil {
			return Membership{}, persistence("get user", store.ErrNotFound)
		}
		return d.membership(u)
	}
	if err != nil {
		d.opts.metrics.IncStoreError("resolve_group")
		return Membership{}, persistence("create user and group", err)
	}

	d.opts.metrics.IncGroupsCreated()
	d.opts.logger.Info("group created", "user_id", u.ID, "group_id", g.ID)
	return Membership{User: u, GroupID: g.ID, Created: true}, nil
}

func (d *Directory) membership(u *model.User) (Membership, error) {
	gid, err := d.ActiveGroup(u)
	if err != nil {
		return Membership{}, err
	}
	return Membership{User: u, GroupID: gid}, nil
}

// ActiveGroup applies the group selector to a user record already in hand,
// such as one read back from the session cache.
func (d *Directory) ActiveGroup(u *model.User) (string, error) {
	gid, ok := d.opts.selector(u)
	if !ok {
		return "", fmt.Errorf("%w: user %s has no groups", ErrNoGroupAssociation, u.ID)
	}
	return gid, nil
}
