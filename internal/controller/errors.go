package controller

import (
	"errors"
	"fmt"
)

// ErrorKind는 명령 처리 실패의 분류입니다.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindValidation: 인자 누락, 잘못된 색상 등 사용자 입력 오류
	KindValidation
	// KindUnauthorized: 허가되지 않은 사용자
	KindUnauthorized
	// KindNotFound: 필요한 역할/슬롯이 없음
	KindNotFound
	// KindPlatform: 플랫폼 호출 실패
	KindPlatform
	// KindStorage: 역할 슬롯 저장소 실패
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindPlatform:
		return "platform"
	case KindStorage:
		return "storage"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// 기본 에러 타입
var (
	ErrInvalidInput = errors.New("invalid command input")
	ErrUnauthorized = errors.New("user not authorized")
	ErrNotFound     = errors.New("resource not found")

	// ErrRoleNotFound는 Platform.Role이 역할을 찾지 못했을 때 반환합니다.
	ErrRoleNotFound = errors.New("role not found")
)

// CommandError는 명령 처리 실패를 분류와 사용자 응답과 함께 래핑합니다.
type CommandError struct {
	Op    string    // 명령명 (예: "pretty", "disintigrate")
	Kind  ErrorKind // 실패 분류
	Reply string    // 채널로 보낼 응답, 비어 있으면 아무것도 보내지 않음
	Err   error     // 원본 에러
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command[%s] %s: %v", e.Op, e.Kind, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func validationError(op, reply string) *CommandError {
	return &CommandError{Op: op, Kind: KindValidation, Reply: reply, Err: ErrInvalidInput}
}

func unauthorizedError(op, reply string) *CommandError {
	return &CommandError{Op: op, Kind: KindUnauthorized, Reply: reply, Err: ErrUnauthorized}
}

func notFoundError(op, reply string) *CommandError {
	return &CommandError{Op: op, Kind: KindNotFound, Reply: reply, Err: ErrNotFound}
}

func platformError(op, reply string, err error) *CommandError {
	return &CommandError{Op: op, Kind: KindPlatform, Reply: reply, Err: err}
}

func storageError(op, reply string, err error) *CommandError {
	return &CommandError{Op: op, Kind: KindStorage, Reply: reply, Err: err}
}

// KindOf는 에러의 분류를 반환합니다. CommandError가 아니면 KindPlatform으로 취급합니다.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Kind
	}
	return KindPlatform
}

// ReplyOf는 에러에 담긴 사용자 응답을 반환합니다.
func ReplyOf(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Reply
	}
	return ""
}

// IsUserError는 사용자 측 원인(입력/권한/없음)의 실패인지 확인합니다.
func IsUserError(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindUnauthorized, KindNotFound:
		return true
	default:
		return false
	}
}
