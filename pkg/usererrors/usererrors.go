package usererrors

// UserError 面向调用方的业务错误，错误即数据，不走HTTP状态码
type UserError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *UserError) Error() string {
	return e.Message
}

func New(code, message string) *UserError {
	return &UserError{Code: code, Message: message}
}

// Is 按错误码比较
func (e *UserError) Is(target error) bool {
	ue, ok := target.(*UserError)
	return ok && ue.Code == e.Code
}
