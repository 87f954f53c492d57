package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/civicreport/civicreport-api/internal/metrics"
	"github.com/civicreport/civicreport-api/internal/models"
	"go.uber.org/zap"
)

// Notifier delivers user-facing emails. *email.EmailService satisfies it.
type Notifier interface {
	SendWelcomeEmail(email, firstName string) error
	SendIssueResolvedEmail(email, firstName string, issueID uint, issueTitle string) error
	SendNewCommentEmail(email, firstName, commenterName string, issueID uint, issueTitle, text string) error
}

// Dispatcher sends notifications in the background so requests never wait on email delivery.
type Dispatcher struct {
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		metrics:  m,
		logger:   logger.Named("notify"),
	}
}

func (d *Dispatcher) Welcome(user *models.User) {
	email, name := strings.Clone(user.Email), strings.Clone(user.FirstName)
	d.dispatch("welcome", func() error {
		return d.notifier.SendWelcomeEmail(email, name)
	})
}

func (d *Dispatcher) IssueResolved(issue *models.Issue) {
	to, name := strings.Clone(issue.ReportedBy.Email), strings.Clone(issue.ReportedBy.FirstName)
	id, title := issue.ID, strings.Clone(issue.Title)
	d.dispatch("issue_resolved", func() error {
		return d.notifier.SendIssueResolvedEmail(to, name, id, title)
	})
}

func (d *Dispatcher) NewComment(issue *models.Issue, commenter *models.User, text string) {
	to, name := strings.Clone(issue.ReportedBy.Email), strings.Clone(issue.ReportedBy.FirstName)
	id, title := issue.ID, strings.Clone(issue.Title)
	commenterName := commenter.FirstName
	if commenterName == "" {
		commenterName = commenter.Email
	}
	commenterName, text = strings.Clone(commenterName), strings.Clone(text)
	d.dispatch("new_comment", func() error {
		return d.notifier.SendNewCommentEmail(to, name, commenterName, id, title, text)
	})
}

// Wait blocks until every queued notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(template string, send func() error) {
	if d == nil || d.notifier == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
				d.logger.Error("notification panicked", zap.String("template", template), zap.Any("panic", r))
			}
			d.metrics.EmailSent(template, err)
		}()

		if err = send(); err != nil {
			d.logger.Warn("notification failed", zap.String("template", template), zap.Error(err))
		}
	}()
}
