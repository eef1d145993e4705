// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess           = "success"
	KeyInternalError     = "error.internal"
	KeyValidationInvalid = "validation.invalid"
	KeyInvalidID         = "validation.invalid_id"
	KeyRateLimited       = "error.rate_limited"
	KeyInvalidTransition = "state.invalid_transition"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthEmailTaken         = "auth.email_taken"
	KeyAuthRoleNotAllowed     = "auth.role_not_allowed"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRoleForbidden      = "auth.role_forbidden"

	// Suppliers
	KeySupplierNotFound      = "supplier.not_found"
	KeySupplierOwnerHasOne   = "supplier.owner_has_supplier"
	KeySupplierNameTaken     = "supplier.name_taken"
	KeySupplierCreated       = "supplier.created"
	KeySupplierNotAffiliated = "supplier.not_affiliated"

	// Staff
	KeyStaffNotFound     = "staff.not_found"
	KeyStaffInvalidRole  = "staff.invalid_role"
	KeyStaffOtherCompany = "staff.other_supplier"
	KeyStaffCreated      = "staff.created"
	KeyStaffUpdated      = "staff.updated"
	KeyStaffDeleted      = "staff.deleted"

	// Links
	KeyLinkNotFound       = "link.not_found"
	KeyLinkExists         = "link.exists"
	KeyLinkNotParticipant = "link.not_participant"
	KeyLinkNotAccepted    = "link.not_accepted"
	KeyLinkRequested      = "link.requested"
	KeyLinkUpdated        = "link.updated"

	// Products
	KeyProductNotFound        = "product.not_found"
	KeyProductCreated         = "product.created"
	KeyProductUpdated         = "product.updated"
	KeyProductDeleted         = "product.deleted"
	KeyProductSupplierMissing = "product.supplier_required"

	// Orders
	KeyOrderNotFound         = "order.not_found"
	KeyOrderEmpty            = "order.empty"
	KeyOrderNoLink           = "order.no_link"
	KeyOrderLinkNotAccepted  = "order.link_not_accepted"
	KeyOrderProductMissing   = "order.product_not_found"
	KeyOrderWrongSupplier    = "order.wrong_supplier"
	KeyOrderProductInactive  = "order.product_inactive"
	KeyOrderBelowMOQ         = "order.below_moq"
	KeyOrderInsufficient     = "order.insufficient_stock"
	KeyOrderDuplicateProduct = "order.duplicate_product"
	KeyOrderCreated          = "order.created"
	KeyOrderUpdated          = "order.updated"
	KeyOrderNotPayable       = "order.not_payable"
	KeyOrderPaymentsDisabled = "order.payments_disabled"

	// Complaints
	KeyComplaintNotFound       = "complaint.not_found"
	KeyComplaintTargetRequired = "complaint.target_required"
	KeyComplaintOrderMismatch  = "complaint.order_link_mismatch"
	KeyComplaintUnlinked       = "complaint.unlinked"
	KeyComplaintCannotEscalate = "complaint.cannot_escalate"
	KeyComplaintCreated        = "complaint.created"
	KeyComplaintUpdated        = "complaint.updated"
	KeyComplaintEscalated      = "complaint.escalated"

	// Chat
	KeyChatEmpty          = "chat.empty"
	KeyChatInvalidKind    = "chat.invalid_attachment_kind"
	KeyChatFileTooLarge   = "chat.file_too_large"
	KeyChatFileMissing    = "chat.file_missing"
	KeyChatMessageSent    = "chat.message_sent"
	KeyChatAttachmentSent = "chat.attachment_uploaded"
)
