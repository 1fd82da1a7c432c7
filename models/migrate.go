package models

// All returns every model managed by this service, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Appraisal{},
		&AppraisalReview{},
		&AppraisalStatusHistory{},
		&AppraisalDocument{},
		&AuditLog{},
		&Notification{},
	}
}
