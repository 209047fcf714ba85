package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"makeChannel/internal/domain"
)

const (
	GrantedReply = "権限を付与しました。"
	RevokedReply = "権限を削除しました。"
)

type Verb int

const (
	VerbJoin Verb = iota
	VerbLeave
)

func (v Verb) String() string {
	if v == VerbLeave {
		return "leave"
	}
	return "join"
}

// Reply es el texto agregado que se manda después de procesar todos los canales.
func (v Verb) Reply() string {
	if v == VerbLeave {
		return RevokedReply
	}
	return GrantedReply
}

// AccessReconciler lleva el overwrite del usuario al estado pedido en cada canal.
type AccessReconciler struct {
	overwrites domain.OverwriteStore
	log        *zap.Logger
}

func NewAccessReconciler(overwrites domain.OverwriteStore, log *zap.Logger) *AccessReconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccessReconciler{overwrites: overwrites, log: log}
}

// Reconcile procesa los canales en orden, uno a la vez. Si falla el canal k,
// los anteriores quedan modificados y se devuelve el error sin seguir.
func (r *AccessReconciler) Reconcile(ctx context.Context, channels []domain.Channel, verb Verb, userID string) error {
	for _, ch := range channels {
		if err := r.reconcileOne(ctx, ch, verb, userID); err != nil {
			return fmt.Errorf("access: %s %s: %w", verb, ch.Name, err)
		}
	}
	return nil
}

func (r *AccessReconciler) reconcileOne(ctx context.Context, ch domain.Channel, verb Verb, userID string) error {
	existing, err := r.overwrites.Overwrites(ctx, ch.ID)
	if err != nil {
		return err
	}

	current, found := findOverwrite(existing, userID)

	switch verb {
	case VerbLeave:
		if !found {
			return nil
		}
		// También borra un deny explícito; ver DESIGN.md.
		r.log.Debug("revocando acceso",
			zap.String("channel", ch.ID),
			zap.String("user", userID),
			zap.Stringer("previous", current.View),
		)
		return r.overwrites.DeleteOverwrite(ctx, ch.ID, userID)

	case VerbJoin:
		grant := domain.Overwrite{
			PrincipalID: userID,
			Type:        domain.PrincipalMember,
			View:        domain.ViewAllow,
		}
		if !found {
			return r.overwrites.CreateOverwrite(ctx, ch.ID, grant)
		}
		grant.Type = current.Type
		return r.overwrites.EditOverwrite(ctx, ch.ID, grant)
	}

	return fmt.Errorf("verbo desconocido %d", verb)
}

func findOverwrite(list []domain.Overwrite, principalID string) (domain.Overwrite, bool) {
	for _, ow := range list {
		if ow.PrincipalID == principalID {
			return ow, true
		}
	}
	return domain.Overwrite{}, false
}
