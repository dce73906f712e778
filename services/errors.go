package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации: локальные предусловия, до любых побочных эффектов
	ErrValidationFailed        = errors.New("validation failed")
	ErrPasswordTooShort        = errors.New("password is too short")
	ErrTeamNameRequired        = errors.New("team name is required")
	ErrEventNameRequired       = errors.New("event name is required")
	ErrEventDatesRequired      = errors.New("event date and registration deadline are required")
	ErrEventInvalidDeadline    = errors.New("registration deadline must not be after the event date")
	ErrEventInvalidCapacity    = errors.New("event max teams must be positive")
	ErrEventInvalidMemberRange = errors.New("event member range is invalid")
	ErrEventRoundsRequired     = errors.New("event must have at least one round")
	ErrEventInvalidRoundKind   = errors.New("unknown round kind")
	ErrDeckFileRequired        = errors.New("a slide deck file is required for this round")
	ErrRepoLinksRequired       = errors.New("both repository and video links are required for this round")
	ErrReportFileRequired      = errors.New("a project report file is required to start an interview")
	ErrAudioFileRequired       = errors.New("an audio answer file is required")
	ErrSpeechTextRequired      = errors.New("text to synthesize is required")

	// Ошибки конфликтов: отклонение из-за уже существующего состояния
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrTeamNameConflict       = errors.New("team name is already in use for this event")
	ErrUserAlreadyInTeam      = errors.New("user already belongs to a team for this event")
	ErrJoinRequestConflict    = errors.New("a pending join request already exists")
	ErrRequestAlreadyResolved = errors.New("join request has already been resolved")
	ErrSubmissionExists       = errors.New("a submission already exists for this round")
	ErrTeamFull               = errors.New("team has reached its member limit")
	ErrEventTeamsFull         = errors.New("event has reached its team limit")
	ErrRegistrationClosed     = errors.New("event registration is closed")
	ErrEventNameConflict      = errors.New("event name is already in use")

	// Ошибки авторизации
	ErrForbiddenOperation    = errors.New("operation not allowed for the current user")
	ErrLeaderActionForbidden = errors.New("only the team leader can perform this action")
	ErrSelfRemoveForbidden   = errors.New("only the team leader or the member themselves can perform this action")
	ErrCannotRemoveLeader    = errors.New("the team leader cannot be removed; delete the team instead")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound    = errors.New("user not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrTeamNotFound    = errors.New("team not found")
	ErrRoundNotFound   = errors.New("round not found for this event")
	ErrRequestNotFound = errors.New("join request not found")
	ErrSessionNotFound = errors.New("interview session not found")

	// Ошибки собеседования
	ErrSessionDone           = errors.New("interview session is already complete")
	ErrQuestionIndexMismatch = errors.New("answer does not match the current question index")
)
