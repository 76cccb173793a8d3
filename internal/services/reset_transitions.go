package services

import "menuqr/internal/models"

// Допустимые переходы статусов сессии сброса пароля.
// pending -> email-verified (нужен SMS) -> sms-verified -> completed
// pending -> sms-verified (SMS не требуется или сессия только по телефону)
// любой активный -> expired
var ResetTransitions = map[models.ResetStatus]map[models.ResetStatus]bool{
	models.ResetPending:       {models.ResetEmailVerified: true, models.ResetSMSVerified: true, models.ResetExpired: true},
	models.ResetEmailVerified: {models.ResetSMSVerified: true, models.ResetExpired: true},
	models.ResetSMSVerified:   {models.ResetCompleted: true, models.ResetExpired: true},
	models.ResetCompleted:     {}, // финалка
	models.ResetExpired:       {},
}

func canTransition(current, to models.ResetStatus) bool {
	nexts, ok := ResetTransitions[current]
	if !ok {
		return false
	}
	return nexts[to]
}
