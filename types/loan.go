package types

import "encoding/json"

// UDFField is one named value inside a user-defined field group.
type UDFField struct {
	UDFFieldID int64  `json:"udfFieldID,omitempty"`
	FieldName  string `json:"fieldName"`
	Value      string `json:"value"`
	UDFType    int    `json:"udfType,omitempty"`
}

// UDFGroup is a dynamically named group of supplementary fields. The set of
// groups and field names is decided by back-office configuration, not by this
// code, so it stays an open list rather than a fixed struct.
type UDFGroup struct {
	GroupName string     `json:"userDefinedFieldGroupName"`
	Fields    []UDFField `json:"udfGroupeFieldsModels"`
}

// AMLCheck is one screening-list hit for the applicant.
type AMLCheck struct {
	ListName  string  `json:"listName"`
	AMLStatus string  `json:"amlStatus"`
	Score     float64 `json:"score"`
}

// CustomerDTO mirrors the core-banking customer payload.
type CustomerDTO struct {
	ID              json.Number `json:"id"`
	CustomerName    string      `json:"customerName"`
	CustomerType    string      `json:"customerType"`
	CustomerAddress string      `json:"customerAddress"`
	Gender          string      `json:"gender"`
	MaritalStatus   string      `json:"maritalStatus"`
	Age             json.Number `json:"age"`
	DateOfBirth     string      `json:"dateOfBirth"`
	Telephone       string      `json:"telephone"`
	AMLChecks       []AMLCheck  `json:"acmAmlChecksDTOs"`
}

// LoanAsset is one financed article on the application.
type LoanAsset struct {
	PrixUnitaire    float64 `json:"prixUnitaire"`
	QuantiteArticle float64 `json:"quantiteArticle"`
}

// LoanRecord is the raw application as returned by the core banking API,
// with the customer's UDF groups attached after a second fetch.
type LoanRecord struct {
	LoanID             json.Number  `json:"loanId"`
	ExternalID         string       `json:"idLoanExtern"`
	AccountNumber      string       `json:"accountNumber"`
	StatusLabel        string       `json:"statutLibelle"`
	ProductCode        string       `json:"productCode"`
	ProductDescription string       `json:"productDescription"`
	LoanReasonCode     string       `json:"loanReasonCode"`
	IndustryCode       string       `json:"industryCode"`
	BranchName         string       `json:"branchName"`
	BranchDescription  string       `json:"branchDescription"`
	OwnerName          string       `json:"ownerName"`
	ApprovedAmount     float64      `json:"approvelAmount"`
	PersonalContrib    float64      `json:"personalContribution"`
	TotalInterest      float64      `json:"totalInterest"`
	NormalPayment      float64      `json:"normalPayment"`
	APR                float64      `json:"apr"`
	ProductRate        float64      `json:"productRate"`
	TermPeriodNum      int          `json:"termPeriodNum"`
	CurrencySymbol     string       `json:"currencySymbol"`
	Assets             []LoanAsset  `json:"loanAssetsDtos"`
	Customer           *CustomerDTO `json:"customerDTO"`
	UDFData            []UDFGroup   `json:"udf_data"`
}
