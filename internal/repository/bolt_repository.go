package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/needsclan/Gk1/internal/domain"
)

// Bucket layout follows the logical store paths:
//
//	conversations-by-owner/{ownerId}/{conversationId} -> MirrorModel JSON
//	messages/{conversationId}/{seq}                   -> MessageModel JSON
//	profiles/{participantId}                          -> ProfileModel JSON
var (
	bucketInbox    = []byte(domain.InboxRoot)
	bucketMessages = []byte(domain.MessagesRoot)
	bucketProfiles = []byte("profiles")
)

func ensureBoltBuckets(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketInbox, bucketMessages, bucketProfiles} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
}

func seqKey(seq int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(seq))
	return k
}

type boltMessageRepository struct {
	db    *bolt.DB
	feed  domain.ChangeFeed
	clock Clock

	appendMu sync.Mutex
}

func NewBoltMessageRepository(db *bolt.DB, feed domain.ChangeFeed, clock Clock) MessageRepository {
	return &boltMessageRepository{db: db, feed: feed, clock: clock}
}

func (r *boltMessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return storeErr(err, "boltMessageRepo.Append")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return storeErr(err, "boltMessageRepo.Append.NewID")
	}

	model := MessageDomainToModel(msg)
	model.ID = id.String()

	r.appendMu.Lock()
	model.CreatedAtMs = toMillis(r.clock.Now())
	err = r.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketMessages)
		// The root sequence survives conversation purges, so a stream that
		// already saw seq N never misses a later message.
		seq, err := root.NextSequence()
		if err != nil {
			return err
		}
		model.Seq = int64(seq)
		b, err := root.CreateBucketIfNotExists([]byte(model.ConversationID))
		if err != nil {
			return err
		}
		data, err := json.Marshal(model)
		if err != nil {
			return err
		}
		return b.Put(seqKey(model.Seq), data)
	})
	r.appendMu.Unlock()
	if err != nil {
		return storeErr(err, "boltMessageRepo.Append.Update")
	}

	*msg = *MessageModelToDomain(model)
	r.feed.Publish(domain.Change{Path: domain.MessagePath(msg.ConversationID, msg.ID), Kind: domain.ChangeKindSet})
	return nil
}

func (r *boltMessageRepository) ListSince(ctx context.Context, conversationID domain.ConversationID, afterSeq int64, limit int) ([]*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr(err, "boltMessageRepo.ListSince")
	}
	var messages []*domain.Message
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMessages).Bucket([]byte(conversationID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Seek(seqKey(afterSeq + 1)); k != nil; k, v = c.Next() {
			var model MessageModel
			if err := json.Unmarshal(v, &model); err != nil {
				return err
			}
			messages = append(messages, MessageModelToDomain(&model))
			if limit > 0 && len(messages) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "boltMessageRepo.ListSince.View")
	}
	return messages, nil
}

func (r *boltMessageRepository) DeleteByConversation(ctx context.Context, conversationID domain.ConversationID) error {
	if err := ctx.Err(); err != nil {
		return storeErr(err, "boltMessageRepo.DeleteByConversation")
	}
	err := r.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketMessages)
		if root.Bucket([]byte(conversationID)) == nil {
			return nil
		}
		return root.DeleteBucket([]byte(conversationID))
	})
	if err != nil {
		return storeErr(err, "boltMessageRepo.DeleteByConversation.Update")
	}
	r.feed.Publish(domain.Change{Path: domain.MessagesPath(conversationID), Kind: domain.ChangeKindRemoved})
	return nil
}

type boltMirrorRepository struct {
	db    *bolt.DB
	feed  domain.ChangeFeed
	clock Clock
}

func NewBoltMirrorRepository(db *bolt.DB, feed domain.ChangeFeed, clock Clock) MirrorRepository {
	return &boltMirrorRepository{db: db, feed: feed, clock: clock}
}

func (r *boltMirrorRepository) Get(ctx context.Context, owner domain.ParticipantID, conversationID domain.ConversationID) (*domain.Mirror, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr(err, "boltMirrorRepo.Get")
	}
	var found *MirrorModel
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketInbox).Bucket([]byte(owner))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(conversationID))
		if v == nil {
			return nil
		}
		found = &MirrorModel{}
		return json.Unmarshal(v, found)
	})
	if err != nil {
		return nil, storeErr(err, "boltMirrorRepo.Get.View")
	}
	return MirrorModelToDomain(found), nil
}

func (r *boltMirrorRepository) Upsert(ctx context.Context, mirror *domain.Mirror) error {
	if err := ctx.Err(); err != nil {
		return storeErr(err, "boltMirrorRepo.Upsert")
	}
	mirror.UpdatedAt = r.clock.Now()
	data, err := json.Marshal(MirrorDomainToModel(mirror))
	if err != nil {
		return storeErr(err, "boltMirrorRepo.Upsert.Marshal")
	}
	err = r.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(bucketInbox).CreateBucketIfNotExists([]byte(mirror.OwnerID))
		if err != nil {
			return err
		}
		return b.Put([]byte(mirror.ConversationID), data)
	})
	if err != nil {
		return storeErr(err, "boltMirrorRepo.Upsert.Update")
	}
	r.feed.Publish(domain.Change{Path: domain.MirrorPath(mirror.OwnerID, mirror.ConversationID), Kind: domain.ChangeKindSet})
	return nil
}

func (r *boltMirrorRepository) Delete(ctx context.Context, owner domain.ParticipantID, conversationID domain.ConversationID) error {
	if err := ctx.Err(); err != nil {
		return storeErr(err, "boltMirrorRepo.Delete")
	}
	removed := false
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketInbox).Bucket([]byte(owner))
		if b == nil || b.Get([]byte(conversationID)) == nil {
			return nil
		}
		removed = true
		return b.Delete([]byte(conversationID))
	})
	if err != nil {
		return storeErr(err, "boltMirrorRepo.Delete.Update")
	}
	if removed {
		r.feed.Publish(domain.Change{Path: domain.MirrorPath(owner, conversationID), Kind: domain.ChangeKindRemoved})
	}
	return nil
}

func (r *boltMirrorRepository) ListByOwner(ctx context.Context, owner domain.ParticipantID) ([]*domain.Mirror, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr(err, "boltMirrorRepo.ListByOwner")
	}
	mirrors := []*domain.Mirror{}
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketInbox).Bucket([]byte(owner))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var model MirrorModel
			if err := json.Unmarshal(v, &model); err != nil {
				return err
			}
			mirrors = append(mirrors, MirrorModelToDomain(&model))
			return nil
		})
	})
	if err != nil {
		return nil, storeErr(err, "boltMirrorRepo.ListByOwner.View")
	}
	domain.SortByRecency(mirrors)
	return mirrors, nil
}

type boltProfileRepository struct {
	db *bolt.DB
}

func NewBoltProfileRepository(db *bolt.DB) ProfileRepository {
	return &boltProfileRepository{db: db}
}

func (r *boltProfileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	data, err := json.Marshal(ProfileDomainToModel(profile))
	if err != nil {
		return storeErr(err, "boltProfileRepo.Upsert.Marshal")
	}
	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProfiles).Put([]byte(profile.ParticipantID), data)
	})
	return storeErr(err, "boltProfileRepo.Upsert.Update")
}

func (r *boltProfileRepository) GetByID(ctx context.Context, id domain.ParticipantID) (*domain.Profile, error) {
	var found *ProfileModel
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketProfiles).Get([]byte(id))
		if v == nil {
			return nil
		}
		found = &ProfileModel{}
		return json.Unmarshal(v, found)
	})
	if err != nil {
		return nil, storeErr(err, "boltProfileRepo.GetByID.View")
	}
	return ProfileModelToDomain(found), nil
}
