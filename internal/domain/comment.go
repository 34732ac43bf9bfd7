package domain

import "time"

// RawComment is the backend's recursive comment shape. The backend may embed
// replies to any depth or return a flat list linked by ParentID; BuildThread
// folds either into the two-level Root/Reply tree.
type RawComment struct {
	ID             int64        `json:"id"`
	AuthorID       int64        `json:"authorId"`
	AuthorName     string       `json:"authorName"`
	AuthorImageURL string       `json:"authorImageUrl,omitempty"`
	Content        string       `json:"content"`
	CreatedAt      Timestamp    `json:"createdAt"`
	ParentID       *int64       `json:"parentId,omitempty"`
	Replies        []RawComment `json:"replies,omitempty"`
}

func (rc RawComment) hasParent() bool {
	return rc.ParentID != nil && *rc.ParentID != 0
}

func (rc RawComment) fields() CommentFields {
	return CommentFields{
		ID:             rc.ID,
		AuthorID:       rc.AuthorID,
		AuthorName:     rc.AuthorName,
		AuthorImageURL: rc.AuthorImageURL,
		Content:        rc.Content,
		CreatedAt:      rc.CreatedAt.Time,
	}
}

type CommentFields struct {
	ID             int64
	AuthorID       int64
	AuthorName     string
	AuthorImageURL string
	Content        string
	CreatedAt      time.Time
}

// Comment is either a Root or a Reply.
type Comment interface {
	Fields() CommentFields
	isComment()
}

// Root is a top-level comment. Only roots hold replies.
type Root struct {
	CommentFields
	Replies []Reply
}

// Reply belongs to exactly one root and cannot itself be replied to.
type Reply struct {
	CommentFields
	RootID int64
}

func (r Root) Fields() CommentFields { return r.CommentFields }

func (r Reply) Fields() CommentFields { return r.CommentFields }

func (Root) isComment() {}

func (Reply) isComment() {}

// CloneThread deep-copies a tree so readers never share slices with the store.
func CloneThread(roots []Root) []Root {
	out := make([]Root, len(roots))
	for i, r := range roots {
		out[i] = Root{
			CommentFields: r.CommentFields,
			Replies:       append([]Reply(nil), r.Replies...),
		}
	}
	return out
}

// CountThread returns the number of comments in the tree, replies included.
func CountThread(roots []Root) int {
	n := len(roots)
	for _, r := range roots {
		n += len(r.Replies)
	}
	return n
}

// BuildThread converts backend comments into a two-level tree.
//
// Roots keep backend order and replies keep their embedded order. A reply
// that carries replies of its own is flattened onto the same root, right after
// itself. A top-level entry whose ParentID resolves to a known comment is
// attached to that comment's root; one whose parent cannot be resolved stays
// a root.
func BuildThread(raw []RawComment) []Root {
	rootOf := make(map[int64]int64)
	parentOf := make(map[int64]int64)

	for _, rc := range raw {
		if rc.hasParent() {
			parentOf[rc.ID] = *rc.ParentID
			continue
		}
		rootOf[rc.ID] = rc.ID
		markDescendants(rc.Replies, rc.ID, rootOf)
	}

	resolve := func(id int64) (int64, bool) {
		seen := make(map[int64]bool)
		for {
			if root, ok := rootOf[id]; ok {
				return root, true
			}
			parent, ok := parentOf[id]
			if !ok || seen[id] {
				return 0, false
			}
			seen[id] = true
			id = parent
		}
	}

	type attachment struct {
		rootID  int64
		comment RawComment
	}

	roots := make([]Root, 0, len(raw))
	position := make(map[int64]int, len(raw))
	var pending []attachment

	for _, rc := range raw {
		if rc.hasParent() {
			if rootID, ok := resolve(*rc.ParentID); ok {
				pending = append(pending, attachment{rootID: rootID, comment: rc})
				continue
			}
		}
		position[rc.ID] = len(roots)
		roots = append(roots, Root{
			CommentFields: rc.fields(),
			Replies:       flattenReplies(rc.ID, rc.Replies, nil),
		})
	}

	for _, a := range pending {
		i, ok := position[a.rootID]
		if !ok {
			continue
		}
		roots[i].Replies = append(roots[i].Replies, Reply{CommentFields: a.comment.fields(), RootID: a.rootID})
		roots[i].Replies = flattenReplies(a.rootID, a.comment.Replies, roots[i].Replies)
	}

	return roots
}

func markDescendants(replies []RawComment, rootID int64, rootOf map[int64]int64) {
	for _, r := range replies {
		rootOf[r.ID] = rootID
		markDescendants(r.Replies, rootID, rootOf)
	}
}

func flattenReplies(rootID int64, replies []RawComment, out []Reply) []Reply {
	for _, r := range replies {
		out = append(out, Reply{CommentFields: r.fields(), RootID: rootID})
		out = flattenReplies(rootID, r.Replies, out)
	}
	return out
}

// FindComment looks a comment up by id anywhere in the tree.
func FindComment(roots []Root, id int64) (Comment, bool) {
	for _, r := range roots {
		if r.ID == id {
			return r, true
		}
		for _, reply := range r.Replies {
			if reply.ID == id {
				return reply, true
			}
		}
	}
	return nil, false
}

// RemoveComment drops id from the tree. Removing a root drops its replies too.
// It returns the new tree and every id that left it.
func RemoveComment(roots []Root, id int64) ([]Root, []int64) {
	out := make([]Root, 0, len(roots))
	var removed []int64
	for _, r := range roots {
		if r.ID == id {
			removed = append(removed, r.ID)
			for _, reply := range r.Replies {
				removed = append(removed, reply.ID)
			}
			continue
		}
		kept := make([]Reply, 0, len(r.Replies))
		for _, reply := range r.Replies {
			if reply.ID == id {
				removed = append(removed, reply.ID)
				continue
			}
			kept = append(kept, reply)
		}
		r.Replies = kept
		out = append(out, r)
	}
	return out, removed
}
