package storage

import (
	"github.com/slievrly/seata/common"
)

// result of an executed control action
const (
	ResultSucceed = "succeed"
	ResultFailed  = "failed"
)

// ActionRecord is one control action sent by an operator
type ActionRecord struct {
	common.ModelBase
	Xid        string `json:"xid" gorm:"index"`
	BranchID   string `json:"branch_id"`
	BranchType string `json:"branch_type"`
	Action     string `json:"action"`
	Operator   string `json:"operator"`
	RequestID  string `json:"request_id"`
	Result     string `json:"result"`
	Message    string `json:"message"`
}

// TableName TableName
func (*ActionRecord) TableName() string {
	return "console_action_record"
}
