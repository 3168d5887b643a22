// Package firestore stores users, groups and items in Cloud Firestore using
// the mobile app's document layout:
//
//	users/{uid}                  email, name, groups[], createdAt
//	groups/{gid}                 name, createdBy, createdAt
//	groups/{gid}/items/{itemId}  name, price, properties{...}, lists[], status, dateAdded, dateModified
package firestore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	gcfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dukerupert/fridgly/internal/model"
	"github.com/dukerupert/fridgly/internal/store"
)

const (
	usersCollection  = "users"
	groupsCollection = "groups"
	itemsCollection  = "items"
)

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

type UserStore struct {
	client *gcfs.Client
}

func NewUserStore(client *gcfs.Client) *UserStore {
	return &UserStore{client: client}
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	snap, err := s.client.Collection(usersCollection).Doc(id).Get(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	var u model.User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	u.ID = snap.Ref.ID
	if u.Groups == nil {
		u.Groups = []string{}
	}
	return &u, nil
}

// CreateWithGroup writes the group and the user document in one
// transaction. A user document that already exists aborts the transaction
// with store.ErrAlreadyExists.
func (s *UserStore) CreateWithGroup(ctx context.Context, u *model.User, g *model.Group) error {
	userRef := s.client.Collection(usersCollection).Doc(u.ID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *gcfs.Transaction) error {
		snap, err := tx.Get(userRef)
		if err != nil && !isNotFound(err) {
			return err
		}
		if err == nil && snap.Exists() {
			return store.ErrAlreadyExists
		}

		groupRef := s.client.Collection(groupsCollection).NewDoc()
		if g.ID != "" {
			groupRef = s.client.Collection(groupsCollection).Doc(g.ID)
		}
		if err := tx.Create(groupRef, g); err != nil {
			return err
		}

		doc := *u
		doc.Groups = []string{groupRef.ID}
		if err := tx.Create(userRef, doc); err != nil {
			return err
		}
		g.ID = groupRef.ID
		return nil
	})
	if errors.Is(err, store.ErrAlreadyExists) || status.Code(err) == codes.AlreadyExists {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create user with group: %w", err)
	}
	u.Groups = []string{g.ID}
	return nil
}

type GroupStore struct {
	client *gcfs.Client
}

func NewGroupStore(client *gcfs.Client) *GroupStore {
	return &GroupStore{client: client}
}

func (s *GroupStore) GetByID(ctx context.Context, id string) (*model.Group, error) {
	snap, err := s.client.Collection(groupsCollection).Doc(id).Get(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	var g model.Group
	if err := snap.DataTo(&g); err != nil {
		return nil, fmt.Errorf("decode group: %w", err)
	}
	g.ID = snap.Ref.ID
	return &g, nil
}

func (s *GroupStore) ListIDs(ctx context.Context) ([]string, error) {
	iter := s.client.Collection(groupsCollection).DocumentRefs(ctx)
	var ids []string
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list group ids: %w", err)
		}
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

type ItemStore struct {
	client *gcfs.Client
}

func NewItemStore(client *gcfs.Client) *ItemStore {
	return &ItemStore{client: client}
}

func (s *ItemStore) items(groupID string) *gcfs.CollectionRef {
	return s.client.Collection(groupsCollection).Doc(groupID).Collection(itemsCollection)
}

func (s *ItemStore) Create(ctx context.Context, groupID string, item *model.Item) error {
	ref := s.items(groupID).NewDoc()
	if item.ID != "" {
		ref = s.items(groupID).Doc(item.ID)
	}
	if _, err := ref.Set(ctx, item); err != nil {
		return fmt.Errorf("set item: %w", err)
	}
	item.ID = ref.ID
	return nil
}

func (s *ItemStore) GetByID(ctx context.Context, groupID, itemID string) (*model.Item, error) {
	snap, err := s.items(groupID).Doc(itemID).Get(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return decodeItem(snap)
}

// Update merges fields with Firestore's field-path update, which fails with
// NotFound when the document does not exist.
func (s *ItemStore) Update(ctx context.Context, groupID, itemID string, fields []model.Field) error {
	if len(fields) == 0 {
		return fmt.Errorf("update item: no fields")
	}
	updates, err := updatesFor(fields)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	_, err = s.items(groupID).Doc(itemID).Update(ctx, updates)
	if isNotFound(err) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func (s *ItemStore) ListByStatus(ctx context.Context, groupID string, st model.Status) ([]model.Item, error) {
	snaps, err := s.items(groupID).Where(model.FieldStatus, "==", string(st)).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items := make([]model.Item, 0, len(snaps))
	for _, snap := range snaps {
		item, err := decodeItem(snap)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// itemPaths holds every dotted path of the encoded item document, read
// from the firestore struct tags.
var itemPaths = documentPaths(reflect.TypeOf(model.Item{}), "")

func documentPaths(t reflect.Type, prefix string) map[string]bool {
	paths := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("firestore"), ",")
		if name == "" || name == "-" {
			continue
		}
		paths[prefix+name] = true
		if f.Type.Kind() == reflect.Struct && f.Type.PkgPath() == t.PkgPath() {
			for p := range documentPaths(f.Type, prefix+name+".") {
				paths[p] = true
			}
		}
	}
	return paths
}

// updatesFor maps field paths onto Firestore updates, rejecting any path
// the item document does not have.
func updatesFor(fields []model.Field) ([]gcfs.Update, error) {
	updates := make([]gcfs.Update, len(fields))
	for i, f := range fields {
		if !itemPaths[f.Path] {
			return nil, fmt.Errorf("unknown field %q", f.Path)
		}
		updates[i] = gcfs.Update{Path: f.Path, Value: f.Value}
	}
	return updates, nil
}

func decodeItem(snap *gcfs.DocumentSnapshot) (*model.Item, error) {
	var item model.Item
	if err := snap.DataTo(&item); err != nil {
		return nil, fmt.Errorf("decode item %s: %w", snap.Ref.ID, err)
	}
	item.ID = snap.Ref.ID
	return &item, nil
}
