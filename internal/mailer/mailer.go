package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	Body    string // HTML
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	log  logrus.FieldLogger
	from string
}

func NewLogMailer(log logrus.FieldLogger, from string) *LogMailer {
	return &LogMailer{log: log, from: from}
}

// Send logs the envelope at info. Bodies carry live account tokens, so they
// only appear at debug.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	entry := m.log.WithFields(logrus.Fields{
		"from":    m.from,
		"to":      msg.To,
		"subject": msg.Subject,
	})
	entry.Info("mail logged")
	entry.WithField("body", msg.Body).Debug("mail body")
	return nil
}

// OutboxCollection is the collection queued mail is written to.
const OutboxCollection = "mail_outbox"

// outboxDocument is the stored form of a queued message.
type outboxDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	From      string             `bson:"from"`
	To        string             `bson:"to"`
	Subject   string             `bson:"subject"`
	Body      string             `bson:"body"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Inserter is the part of *mongo.Collection the outbox needs.
type Inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// MongoOutbox queues messages in MongoDB for a delivery worker.
type MongoOutbox struct {
	coll Inserter
	from string
	now  func() time.Time
}

// NewMongoOutbox queues into the mail_outbox collection of db.
func NewMongoOutbox(db *mongo.Database, from string) *MongoOutbox {
	return newOutbox(db.Collection(OutboxCollection), from)
}

func newOutbox(coll Inserter, from string) *MongoOutbox {
	return &MongoOutbox{coll: coll, from: from, now: time.Now}
}

func (m *MongoOutbox) Send(ctx context.Context, msg Message) error {
	doc := outboxDocument{
		From:      m.from,
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Status:    "pending",
		CreatedAt: m.now().UTC(),
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("queue mail to %s: %w", msg.To, err)
	}
	return nil
}
