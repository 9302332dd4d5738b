package core

import (
	"context"
	"log/slog"
	"time"

	"rbreg/entity"
	"rbreg/impl/admission"
	"rbreg/impl/auth"
	"rbreg/impl/checkin"
	"rbreg/impl/registry"
	"rbreg/internal/gatepass"
	"rbreg/internal/qr"
	"rbreg/lib/sl"
)

// Core glues the domain services together behind the single handler
// surface the api server consumes.
type Core struct {
	registry  *registry.Registry
	admission *admission.Admission
	checkin   *checkin.Checkin
	auth      *auth.Auth
	gate      *gatepass.Service
	publicUrl string
	log       *slog.Logger
	now       func() time.Time
}

func New(reg *registry.Registry, adm *admission.Admission, ci *checkin.Checkin, au *auth.Auth, gate *gatepass.Service, publicUrl string, log *slog.Logger) *Core {
	return &Core{
		registry:  reg,
		admission: adm,
		checkin:   ci,
		auth:      au,
		gate:      gate,
		publicUrl: publicUrl,
		log:       log.With(sl.Module("core")),
		now:       time.Now,
	}
}

func (c *Core) UserByToken(ctx context.Context, token string) (*entity.User, error) {
	return c.auth.UserByToken(ctx, token)
}

func (c *Core) CompleteProfile(ctx context.Context, user *entity.User, form *entity.ProfileForm) (*entity.User, error) {
	return c.auth.CompleteProfile(ctx, user, form)
}

func (c *Core) DeleteAccount(ctx context.Context, uid string) error {
	return c.auth.DeleteAccount(ctx, uid)
}

func (c *Core) CreateEvent(ctx context.Context, owner *entity.User, form *entity.EventForm) (*entity.Event, *entity.Status, error) {
	return c.registry.Create(ctx, owner, form)
}

func (c *Core) GetEvent(ctx context.Context, uid, callerUid string) (*entity.Event, *entity.Status, error) {
	return c.registry.Get(ctx, uid, callerUid)
}

// LoadEvent fetches an event ignoring the visibility rule. The check-in
// gate needs hidden events too: hiding an event does not stop it running.
func (c *Core) LoadEvent(ctx context.Context, uid string) (*entity.Event, error) {
	return c.registry.Load(ctx, uid)
}

func (c *Core) UpdateEvent(ctx context.Context, uid, callerUid string, fields *entity.EventForm, settings *entity.SettingsForm) (*entity.Status, error) {
	return c.registry.Update(ctx, uid, callerUid, fields, settings)
}

func (c *Core) DeleteEvent(ctx context.Context, uid, callerUid string) (*entity.Status, error) {
	return c.registry.Delete(ctx, uid, callerUid)
}

func (c *Core) MyEvents(ctx context.Context, uid string) (owned, registered map[string]entity.Event, err error) {
	return c.registry.MyEvents(ctx, uid)
}

func (c *Core) ManageEvent(ctx context.Context, uid, callerUid string) (*registry.ManageData, *entity.Status, error) {
	return c.registry.Manage(ctx, uid, callerUid)
}

func (c *Core) AutoOpen(ctx context.Context, uid string) (*registry.AutoOpen, *entity.Status, error) {
	return c.registry.AutoOpen(ctx, uid)
}

func (c *Core) Register(ctx context.Context, event *entity.Event, caller *entity.User, form *entity.RegisterForm) (*entity.Status, error) {
	return c.admission.Register(ctx, event, caller, form)
}

func (c *Core) RegisterManual(ctx context.Context, event *entity.Event, callerUid string, form *entity.RegisterForm) (string, *entity.Status, error) {
	return c.admission.RegisterManual(ctx, event, callerUid, form)
}

func (c *Core) Unregister(ctx context.Context, event *entity.Event, callerUid string) (*entity.Status, error) {
	return c.admission.Unregister(ctx, event, callerUid)
}

// IssueGatePass trades a correct check-in code for a short-lived pass
// token. The pass carries the code forward so later requests do not
// repeat it.
func (c *Core) IssueGatePass(event *entity.Event, code string) (string, *entity.Status, error) {
	if st := c.checkin.SubmitCode(event, code); st != nil {
		return "", st, nil
	}
	token, err := c.gate.Issue(event.Uid, code)
	if err != nil {
		return "", nil, err
	}
	return token, nil, nil
}

// DynamicCheckin performs a self-service check-in under a gate pass.
// The pass is spent only when the check-in succeeds, so a typo does not
// cost the visitor their pass.
func (c *Core) DynamicCheckin(ctx context.Context, event *entity.Event, passToken string, form *checkin.DynamicForm) (*entity.Status, error) {
	pass, err := c.gate.Redeem(passToken, event.Uid)
	if err != nil {
		c.log.Debug("gate pass rejected", sl.Err(err))
		return entity.StatusCiInvalid, nil
	}
	status, err := c.checkin.Dynamic(ctx, event, pass.Code, form)
	if err != nil || status != nil {
		return status, err
	}
	c.gate.Spend(pass)
	return nil, nil
}

// VerifyGatePass reports whether a pass token is currently valid for
// the event, without spending it.
func (c *Core) VerifyGatePass(passToken, eventUid string) bool {
	_, err := c.gate.Redeem(passToken, eventUid)
	return err == nil
}

func (c *Core) ManualCheckin(ctx context.Context, event *entity.Event, caller *entity.User) (*entity.Status, error) {
	return c.checkin.Manual(ctx, event, caller)
}

// EventQr renders a QR code image pointing at the event's public
// registration or check-in page. Only the creator may generate codes,
// and ended events get none.
func (c *Core) EventQr(ctx context.Context, uid, callerUid, qrType, size string) ([]byte, *entity.Status, error) {
	event, status, err := c.registry.Get(ctx, uid, callerUid)
	if err != nil || status != nil {
		return nil, status, err
	}
	if event.Creator != callerUid {
		return nil, entity.StatusForbidden, nil
	}
	if event.Ended(c.now()) {
		return nil, entity.StatusQrGenFail, nil
	}
	png, err := qr.Generate(c.publicUrl, event.Uid, qrType, size)
	if err != nil {
		c.log.Error("generate qr", sl.Err(err), slog.String("event", uid))
		return nil, entity.StatusQrGenFail, nil
	}
	return png, nil, nil
}
