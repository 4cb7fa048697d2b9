package config

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/edenpkg/edenpkg/internal/ekind"
	"github.com/edenpkg/edenpkg/internal/paths"
)

func (raw rawConfig) intoConfig(configDir string) (*Config, error) {
	version, err := required(raw.Version, "version")
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, ekind.Newf(ekind.Validation, "version: expected 1, got %d", version)
	}

	storageRoot := defaultStorageRoot
	if raw.Storage != nil && raw.Storage.Root != nil {
		storageRoot = *raw.Storage.Root
	}
	if _, err := paths.Resolve(storageRoot, configDir); err != nil {
		return nil, ekind.Newf(ekind.Validation, "storage.root: invalid path: %v", err)
	}

	registries := map[string]RegistryConfig{}
	registryNames := map[string]bool{}
	for name, rr := range raw.Registries {
		if strings.TrimSpace(name) == "" {
			return nil, ekind.New(ekind.Validation, "registries: registry name must not be empty")
		}
		if err := validateRepoURL(rr.URL, "registries."+name+".url"); err != nil {
			return nil, err
		}
		var priority uint32
		if rr.Priority != nil {
			if *rr.Priority < 0 {
				return nil, ekind.Newf(ekind.Validation, "registries.%s.priority: must be non-negative", name)
			}
			priority = uint32(*rr.Priority)
		}
		registries[name] = RegistryConfig{Name: name, URL: rr.URL, Priority: priority}
		registryNames[name] = true
	}
	hasRegistries := len(registryNames) > 0

	reactorCfg := ReactorConfig{Concurrency: DefaultConcurrency}
	if raw.Reactor != nil && raw.Reactor.Concurrency != nil {
		c := *raw.Reactor.Concurrency
		if c < MinConcurrency || c > MaxConcurrency {
			return nil, ekind.Validationf(CodeInvalidConcurrency, "reactor.concurrency",
				"must be between %d and %d, got %d", MinConcurrency, MaxConcurrency, c)
		}
		reactorCfg.Concurrency = c
	}

	if len(raw.Skills) == 0 {
		return nil, ekind.New(ekind.Validation, "skills: must contain at least one skill")
	}

	ids := map[string]bool{}
	skills := make([]Skill, 0, len(raw.Skills))
	for idx, rs := range raw.Skills {
		skillPath := fieldIndex("skills", idx)
		skill, err := rs.intoSkill(configDir, skillPath, hasRegistries, registryNames)
		if err != nil {
			return nil, err
		}
		if ids[skill.ID] {
			return nil, ekind.Validationf(CodeDuplicateSkillID, skillPath+".id", "duplicate id `%s`", skill.ID)
		}
		ids[skill.ID] = true
		skills = append(skills, skill)
	}

	return &Config{
		Version:     version,
		StorageRoot: storageRoot,
		Registries:  registries,
		Reactor:     reactorCfg,
		Skills:      skills,
	}, nil
}

func fieldIndex(prefix string, idx int) string {
	return prefix + "[" + itoa(idx) + "]"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (rs rawSkill) intoSkill(configDir, fieldPath string, hasRegistries bool, registryNames map[string]bool) (Skill, error) {
	modeAPresent := rs.ID != nil || rs.Source != nil
	modeBPresent := rs.Name != nil || rs.Version != nil || rs.Registry != nil

	if rs.Name != nil && modeAPresent {
		return Skill{}, ekind.Validationf(CodeInvalidSkillMode, fieldPath,
			"Mode B (`name`) cannot be mixed with Mode A (`id` + `source`)")
	}
	if rs.Name == nil && modeBPresent {
		return Skill{}, ekind.Validationf(CodeInvalidSkillMode, fieldPath, "Mode B fields require `name`")
	}

	var id string
	var source Source

	if rs.Name != nil {
		if !hasRegistries {
			return Skill{}, ekind.Validationf(CodeMissingRegistries, fieldPath,
				"Mode B skill requires [registries] section")
		}

		versionConstraint := "*"
		if rs.Version != nil {
			versionConstraint = *rs.Version
		}
		if err := validateSemverConstraint(versionConstraint, fieldPath+".version"); err != nil {
			return Skill{}, err
		}

		registryName := ""
		if rs.Registry != nil {
			registryName = *rs.Registry
			if !registryNames[registryName] {
				return Skill{}, ekind.Validationf(CodeUnknownRegistry, fieldPath+".registry",
					"unknown registry `%s`", registryName)
			}
		}

		id = *rs.Name
		source = Source{
			Repo:    EncodeRegistryModeRepo(registryName),
			Subpath: ".",
			Ref:     versionConstraint,
		}
	} else {
		var err error
		id, err = required(rs.ID, fieldPath+".id")
		if err != nil {
			return Skill{}, err
		}
		rawSrc, err := required(rs.Source, fieldPath+".source")
		if err != nil {
			return Skill{}, err
		}
		source, err = rawSrc.intoSourceConfig(fieldPath + ".source")
		if err != nil {
			return Skill{}, err
		}
		if err := validateRepoURL(source.Repo, fieldPath+".source.repo"); err != nil {
			return Skill{}, err
		}
	}

	installMode := InstallSymlink
	if rs.Install != nil && rs.Install.Mode != nil {
		switch *rs.Install.Mode {
		case string(InstallSymlink):
			installMode = InstallSymlink
		case string(InstallCopy):
			installMode = InstallCopy
		default:
			return Skill{}, ekind.Newf(ekind.Validation, "%s.install.mode: expected `symlink` or `copy`, got `%s`", fieldPath, *rs.Install.Mode)
		}
	}

	if len(rs.Targets) == 0 {
		return Skill{}, ekind.Newf(ekind.Validation, "%s.targets: must contain at least one target", fieldPath)
	}
	targets := make([]Target, 0, len(rs.Targets))
	for idx, rt := range rs.Targets {
		target, err := rt.intoTargetConfig(configDir, fieldIndex(fieldPath+".targets", idx))
		if err != nil {
			return Skill{}, err
		}
		targets = append(targets, target)
	}

	verify := rs.Verify.intoVerifyConfig(installMode)
	if verify.Enabled && len(verify.Checks) == 0 {
		return Skill{}, ekind.Newf(ekind.Validation, "%s.verify.checks: must not be empty when verify.enabled=true", fieldPath)
	}
	for _, check := range verify.Checks {
		if !recognizedCheck(check) {
			return Skill{}, ekind.Newf(ekind.Validation, "%s.verify.checks: unsupported check `%s`", fieldPath, check)
		}
	}

	safety := rs.Safety.intoSafetyConfig()

	return Skill{
		ID:      id,
		Source:  source,
		Install: Install{Mode: installMode},
		Targets: targets,
		Verify:  verify,
		Safety:  safety,
	}, nil
}

func recognizedCheck(check string) bool {
	switch check {
	case CheckPathExists, CheckIsSymlink, CheckTargetResolves, CheckContentPresent:
		return true
	default:
		return false
	}
}

func (rsc *rawSource) intoSourceConfig(fieldPath string) (Source, error) {
	repo, err := required(rsc.Repo, fieldPath+".repo")
	if err != nil {
		return Source{}, err
	}
	subpath := "."
	if rsc.Subpath != nil {
		subpath = *rsc.Subpath
	}
	ref := "main"
	if rsc.Ref != nil {
		ref = *rsc.Ref
	}
	return Source{Repo: repo, Subpath: subpath, Ref: ref}, nil
}

func (rt rawTarget) intoTargetConfig(configDir, fieldPath string) (Target, error) {
	agentStr, err := required(rt.Agent, fieldPath+".agent")
	if err != nil {
		return Target{}, err
	}
	agent, err := parseAgentKind(agentStr)
	if err != nil {
		return Target{}, ekind.Newf(ekind.Validation, "%s.agent: %v", fieldPath, err)
	}

	if agent == AgentCustom && rt.Path == nil {
		return Target{}, ekind.Newf(ekind.Validation, "%s.path: required when agent=custom", fieldPath)
	}

	var path, expectedPath string
	if rt.Path != nil {
		path = *rt.Path
		if _, err := paths.Resolve(path, configDir); err != nil {
			return Target{}, err
		}
	}
	if rt.ExpectedPath != nil {
		expectedPath = *rt.ExpectedPath
		if _, err := paths.Resolve(expectedPath, configDir); err != nil {
			return Target{}, err
		}
	}

	environment := "local"
	if rt.Environment != nil {
		environment = *rt.Environment
	}
	if err := validateEnvironment(environment, fieldPath+".environment"); err != nil {
		return Target{}, err
	}

	return Target{
		Agent:        agent,
		Path:         path,
		ExpectedPath: expectedPath,
		Environment:  environment,
	}, nil
}

func (rv *rawVerify) intoVerifyConfig(installMode InstallMode) Verify {
	enabled := true
	var checks []string
	if rv != nil {
		if rv.Enabled != nil {
			enabled = *rv.Enabled
		}
		checks = rv.Checks
	}
	if checks == nil {
		checks = DefaultVerifyChecks(installMode)
	}
	return Verify{Enabled: enabled, Checks: checks}
}

func (rs *rawSafety) intoSafetyConfig() Safety {
	if rs == nil || rs.NoExecMetadataOnly == nil {
		return Safety{}
	}
	return Safety{NoExecMetadataOnly: *rs.NoExecMetadataOnly}
}

func validateSemverConstraint(value, fieldPath string) error {
	constraint := strings.TrimSpace(value)
	if constraint == "" {
		return ekind.Validationf(CodeInvalidSemver, fieldPath, "version constraint must not be empty")
	}
	if constraint == "*" {
		return nil
	}
	if _, err := semver.NewVersion(constraint); err == nil {
		return nil
	}
	if _, err := semver.NewConstraint(constraint); err != nil {
		return ekind.Validationf(CodeInvalidSemver, fieldPath, "invalid semver constraint `%s`: %v", constraint, err)
	}
	return nil
}

func validateEnvironment(environment, fieldPath string) error {
	if environment == "local" {
		return nil
	}
	if rest, ok := strings.CutPrefix(environment, "docker:"); ok && strings.TrimSpace(rest) != "" {
		return nil
	}
	return ekind.Validationf(CodeInvalidEnvironment, fieldPath, "expected `local` or `docker:<container>`")
}

func validateRepoURL(url, fieldPath string) error {
	isHTTPS := strings.HasPrefix(url, "https://")
	isSSH := strings.HasPrefix(url, "ssh://")
	isSCPLike := strings.HasPrefix(url, "git@") && strings.Contains(url, ":")
	isFile := strings.HasPrefix(url, "file://")
	if isHTTPS || isSSH || isSCPLike || isFile {
		return nil
	}
	return ekind.Newf(ekind.Validation, "%s: must be a valid git URL (https/ssh/file)", fieldPath)
}

// parseAgentKind maps a kebab-case TOML agent string to an AgentKind.
func parseAgentKind(value string) (AgentKind, error) {
	candidate := AgentKind(value)
	switch candidate {
	case AgentClaudeCode, AgentCursor, AgentAntigravity, AgentAugment, AgentOpenclaw,
		AgentCline, AgentCodebuddy, AgentCommandCode, AgentContinue, AgentCortex,
		AgentCrush, AgentDroid, AgentGoose, AgentJunie, AgentIflowCli, AgentKilo,
		AgentKiroCli, AgentKode, AgentMcpjam, AgentMistralVibe, AgentMux, AgentOpenhands,
		AgentPi, AgentQoder, AgentQwenCode, AgentRoo, AgentTrae, AgentWindsurf,
		AgentZencoder, AgentNeovate, AgentPochi, AgentAdal, AgentCustom:
		return candidate, nil
	default:
		return "", ekind.Newf(ekind.Validation, "unrecognized agent `%s`", value)
	}
}
