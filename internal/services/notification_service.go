// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/scpnet/scp-backend/internal/config"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
)

// Notifier tells people about things that happened. Every method is best
// effort and returns immediately.
type Notifier interface {
	LinkRequested(link *models.Link)
	OrderPlaced(order *models.Order)
	ComplaintEscalated(complaint *models.Complaint)
}

type NotificationService struct {
	store  *repository.Store
	config *config.Config
	send   func(e *email.Email) error
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(store *repository.Store, cfg *config.Config) *NotificationService {
	s := &NotificationService{
		store:  store,
		config: cfg,
	}
	s.send = s.sendSMTP
	return s
}

func (s *NotificationService) LinkRequested(link *models.Link) {
	go s.notifySupplierOwner(link.SupplierID, "link_requested", map[string]interface{}{
		"LinkID": link.ID,
	})
}

func (s *NotificationService) OrderPlaced(order *models.Order) {
	go s.notifySupplierOwner(order.SupplierID, "order_placed", map[string]interface{}{
		"OrderID":     order.ID,
		"TotalAmount": order.TotalAmount.StringFixed(2),
		"ItemCount":   len(order.Items),
	})
}

func (s *NotificationService) ComplaintEscalated(complaint *models.Complaint) {
	if complaint.AssignedToID == nil {
		return
	}
	go s.notifyUser(*complaint.AssignedToID, "complaint_escalated", map[string]interface{}{
		"ComplaintID": complaint.ID,
		"Description": complaint.Description,
	})
}

func (s *NotificationService) notifySupplierOwner(supplierID uuid.UUID, templateType string, data map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	supplier, err := s.store.Suppliers.GetByID(ctx, supplierID)
	if err != nil || supplier == nil {
		logrus.WithError(err).WithField("supplier_id", supplierID).Warn("Notification skipped: supplier not found")
		return
	}
	data["SupplierName"] = supplier.Name
	s.deliver(ctx, supplier.OwnerID, templateType, data)
}

func (s *NotificationService) notifyUser(userID uuid.UUID, templateType string, data map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.deliver(ctx, userID, templateType, data)
}

func (s *NotificationService) deliver(ctx context.Context, userID uuid.UUID, templateType string, data map[string]interface{}) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil || user == nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Notification skipped: recipient not found")
		return
	}

	tmpl := s.getEmailTemplate(templateType)
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).WithField("template", templateType).Error("Failed to render email template")
		return
	}

	e := email.NewEmail()
	e.From = fmt.Sprintf("%s <%s>", s.config.Email.FromName, s.config.Email.FromEmail)
	e.To = []string{user.Email}
	e.Subject = tmpl.Subject
	e.HTML = []byte(body)

	if err := s.send(e); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"template": templateType,
			"user_id":  userID,
		}).Error("Failed to send notification email")
	}
}

// Helper methods
func (s *NotificationService) sendSMTP(e *email.Email) error {
	if !s.config.Email.Enabled() {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": e.To, "subject": e.Subject}).Info("Email not configured, skipping send")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)
	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return e.Send(addr, auth)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"link_requested": {
			Subject: "New partnership request",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<p>A consumer asked to link with {{.SupplierName}}.</p>
	<p>Request: {{.LinkID}}</p>
</body>
</html>`,
		},
		"order_placed": {
			Subject: "New order received",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<p>{{.SupplierName}} received order {{.OrderID}} with {{.ItemCount}} item(s).</p>
	<p>Total: {{.TotalAmount}}</p>
</body>
</html>`,
		},
		"complaint_escalated": {
			Subject: "Complaint escalated to you",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<p>Complaint {{.ComplaintID}} was escalated to you.</p>
	<blockquote>{{.Description}}</blockquote>
</body>
</html>`,
		},
	}

	if template, exists := templates[templateType]; exists {
		return template
	}

	// Default template
	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
