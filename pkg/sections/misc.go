package sections

import (
	"fmt"
	"os"
	"strings"

	"github.com/edquist/osg-configure/pkg/artifact"
	"github.com/edquist/osg-configure/pkg/options"
	"github.com/edquist/osg-configure/pkg/validation"
)

// MiscServicesSection is the block name for miscellaneous service settings.
const MiscServicesSection = "Misc Services"

// Artifact locations owned by the Misc Services render pass.
const (
	gsiAuthzPath       = "/etc/grid-security/gsi-authz.conf"
	lcmapsDBPath       = "/etc/lcmaps.db"
	cleanupConfPath    = "/etc/osg/osg-cleanup.conf"
	cleanupCronPath    = "/etc/cron.d/osg-cleanup"
	htcondorCEAuthPath = "/etc/condor-ce/config.d/50-osg-configure.conf"
)

// authMethods are the accepted authorization methods.
var authMethods = []string{"gridmap", "local-gridmap", "xacml", "vomsmap"}

// lcmapsTemplates maps an authorization method to its lcmaps.db template
// file name.
var lcmapsTemplates = map[string]string{
	"xacml":         "lcmaps.db.gums",
	"gridmap":       "lcmaps.db.gridmap",
	"local-gridmap": "lcmaps.db.gridmap",
	"vomsmap":       "lcmaps.db.vomsmap",
}

// NewMiscServices declares the miscellaneous services section: authorization
// method selection, lcmaps db management, and the osg-cleanup cron job.
func NewMiscServices() *Section {
	return New(MiscServicesSection,
		[]*options.Option{
			options.String("authorization_method", "vomsmap"),
			options.String("gums_host", ""),
			options.Boolean("edit_lcmaps_db", true),
			options.String("glexec_location", "").Mapped("OSG_GLEXEC_LOCATION"),
			options.Boolean("enable_cleanup", false),
			options.Integer("cleanup_age_in_days", 14),
			options.String("cleanup_users_list", "@vo-file"),
			options.String("cleanup_cron_time", "15 1 * * *"),
			options.Boolean("copy_host_cert_for_service_certs", false),
		},
		Behavior{
			PostParse:     miscPostParse,
			CrossValidate: miscCrossValidate,
			Render:        miscRender,
		})
}

func miscPostParse(s *Section, ctx *Context) error {
	ctx.Store.Publish(s.Name, FlagAuthorizationMethod, s.Option("authorization_method").StringValue())
	return nil
}

func miscCrossValidate(s *Section, ctx *Context) bool {
	ok := true

	method := s.Option("authorization_method").StringValue()
	if !validation.ValidEnum(method, authMethods) {
		ctx.Error(s.Name, "authorization_method",
			fmt.Sprintf("authorization_method must be one of: %s, got %s", enumList(authMethods), method))
		ok = false
	}

	if method == "xacml" {
		gumsHost := s.Option("gums_host").StringValue()
		if options.Blank(gumsHost) {
			ctx.Error(s.Name, "gums_host", "gums_host must be given when authorization_method is xacml")
			ok = false
		} else if !validation.ValidDomain(gumsHost) || !ctx.Facts.ResolvesAsNetworkHost(gumsHost) {
			ctx.Error(s.Name, "gums_host",
				fmt.Sprintf("%s is not a valid domain name or does not resolve", gumsHost))
			ok = false
		}
	}

	glexec := s.Option("glexec_location").StringValue()
	if method == "vomsmap" && !options.Blank(glexec) {
		ctx.Error(s.Name, "glexec_location",
			conflictMessage(s.Name, "authorization_method", method, s.Name, "glexec_location", glexec))
		ok = false
	}
	if !options.Blank(glexec) && !validation.ValidLocation(glexec) {
		ctx.Error(s.Name, "glexec_location", fmt.Sprintf("%s does not exist", glexec))
		ok = false
	}

	if s.Option("enable_cleanup").BoolValue() {
		cron := s.Option("cleanup_cron_time").StringValue()
		if !validation.ValidCronTime(cron) {
			ctx.Error(s.Name, "cleanup_cron_time",
				fmt.Sprintf("cleanup_cron_time must be a 5 field cron string, got %q", cron))
			ok = false
		}
		if s.Option("cleanup_age_in_days").IntValue() < 1 {
			ctx.Error(s.Name, "cleanup_age_in_days", "cleanup_age_in_days must be at least 1")
			ok = false
		}
	}

	return ok
}

func miscRender(s *Section, ctx *Context) error {
	method := s.Option("authorization_method").StringValue()

	if err := writeLcmapsCallout(ctx, method); err != nil {
		return err
	}

	if s.Option("edit_lcmaps_db").BoolValue() {
		if err := writeLcmapsDB(s, ctx, method); err != nil {
			return err
		}
	} else {
		ctx.Info(s.Name, "edit_lcmaps_db", "not updating lcmaps.db because edit_lcmaps_db is false")
	}

	if ctx.Store.BoolWithDefault(FlagHTCondorGateway, true) {
		if err := writeGridmapToCEConfig(ctx, method); err != nil {
			return err
		}
	}

	if s.Option("enable_cleanup").BoolValue() {
		if err := writeCleanupFiles(s, ctx); err != nil {
			return err
		}
	}

	if s.Option("copy_host_cert_for_service_certs").BoolValue() {
		if err := copyServiceCerts(s, ctx); err != nil {
			return err
		}
	}

	return nil
}

// copyServiceCerts duplicates the host credentials for the condor-ce
// service user. Missing host credentials are a warning, not a failure, so a
// certless trial run still completes.
func copyServiceCerts(s *Section, ctx *Context) error {
	pairs := []struct {
		src  string
		dst  string
		mode os.FileMode
	}{
		{"/etc/grid-security/hostcert.pem", "/etc/grid-security/condor/condorcert.pem", 0o644},
		{"/etc/grid-security/hostkey.pem", "/etc/grid-security/condor/condorkey.pem", 0o600},
	}
	for _, p := range pairs {
		data, err := os.ReadFile(ctx.Paths.Resolve(p.src))
		if os.IsNotExist(err) {
			ctx.Warn(s.Name, "copy_host_cert_for_service_certs",
				fmt.Sprintf("%s not found, not copying it", p.src))
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p.src, err)
		}
		if err := ctx.Writer.Write(artifact.Artifact{
			Path:     ctx.Paths.Resolve(p.dst),
			Contents: data,
			Mode:     p.mode,
		}); err != nil {
			return err
		}
	}
	return nil
}

// writeLcmapsCallout enables or disables the lcmaps callout line depending
// on whether the authorization method maps users through lcmaps.
func writeLcmapsCallout(ctx *Context, method string) error {
	line := "globus_mapping liblcas_lcmaps_gt4_mapping.so lcmaps_callout\n"
	if method == "gridmap" || method == "local-gridmap" {
		line = "#" + line
	}
	contents := artifact.Header("#") + line
	return ctx.Writer.Write(artifact.Artifact{
		Path:     ctx.Paths.Resolve(gsiAuthzPath),
		Contents: []byte(contents),
		Mode:     0o644,
	})
}

// writeLcmapsDB renders lcmaps.db from the packaged template for the chosen
// authorization method. A missing template is a render failure, not a
// validation failure.
func writeLcmapsDB(s *Section, ctx *Context, method string) error {
	name, ok := lcmapsTemplates[method]
	if !ok {
		return fmt.Errorf("no lcmaps.db template for authorization method %s", method)
	}
	path := ctx.Paths.Template(name)
	data, err := os.ReadFile(path)
	if err != nil {
		ctx.Error(s.Name, "edit_lcmaps_db",
			fmt.Sprintf("lcmaps.db template not found at %s; install the templates or set edit_lcmaps_db=False", path))
		return fmt.Errorf("lcmaps.db template missing: %w", err)
	}

	body := strings.ReplaceAll(string(data), "@GUMSHOST@", s.Option("gums_host").StringValue())

	contents := artifact.Header("#") +
		fmt.Sprintf("# Set edit_lcmaps_db = False in the [%s] section to keep your changes.\n", s.Name) +
		body
	return ctx.Writer.Write(artifact.Artifact{
		Path:     ctx.Paths.Resolve(lcmapsDBPath),
		Contents: []byte(contents),
		Mode:     0o644,
	})
}

// writeGridmapToCEConfig keeps the GRIDMAP knob in the HTCondor-CE config in
// step with the authorization method: set for the gridmap family, removed
// otherwise.
func writeGridmapToCEConfig(ctx *Context, method string) error {
	path := ctx.Paths.Resolve(htcondorCEAuthPath)
	contents, err := readFileWithDefault(path, artifact.Header("#"))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if method == "gridmap" || method == "local-gridmap" {
		contents = addOrReplaceSetting(contents, "GRIDMAP", "/etc/grid-security/grid-mapfile", false)
	} else {
		contents = removeSetting(contents, "GRIDMAP")
	}

	return ctx.Writer.Write(artifact.Artifact{
		Path:     path,
		Contents: []byte(contents),
		Mode:     0o644,
	})
}

// writeCleanupFiles renders the osg-cleanup configuration and its cron
// entry.
func writeCleanupFiles(s *Section, ctx *Context) error {
	conf := artifact.Header("#") +
		fmt.Sprintf("age = %d\n", s.Option("cleanup_age_in_days").IntValue()) +
		fmt.Sprintf("users = %s\n", s.Option("cleanup_users_list").StringValue())
	if err := ctx.Writer.Write(artifact.Artifact{
		Path:     ctx.Paths.Resolve(cleanupConfPath),
		Contents: []byte(conf),
		Mode:     0o644,
	}); err != nil {
		return err
	}

	cron := fmt.Sprintf("%s root [ ! -f /var/lock/subsys/osg-cleanup-cron ] || /usr/sbin/osg-cleanup\n",
		s.Option("cleanup_cron_time").StringValue())
	return ctx.Writer.Write(artifact.Artifact{
		Path:     ctx.Paths.Resolve(cleanupCronPath),
		Contents: []byte(cron),
		Mode:     0o644,
	})
}
