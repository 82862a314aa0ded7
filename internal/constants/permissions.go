package constants

const (
	ManageUsers     = "manage_users"
	AssignRole      = "assign_role"
	ReviewDocuments = "review_documents"
	ReviewKYC       = "review_kyc"
	CreateAMLCheck  = "create_aml_check"
)
