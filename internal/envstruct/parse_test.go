package envstruct_test

import (
	"github.com/opsdrill/opsdrill/internal/envstruct"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestPopulate(t *testing.T) {
	type args struct {
		v         any
		lookupEnv func(string) (string, bool)
	}
	tests := []struct {
		name    string
		args    args
		want    any
		wantErr error
	}{
		{
			name: "nil",
			args: args{
				v:         nil,
				lookupEnv: func(_ string) (string, bool) { return "", false },
			},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name: "not pointer",
			args: args{
				v:         struct{}{},
				lookupEnv: func(_ string) (string, bool) { return "", false },
			},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name: "empty struct",
			args: args{
				v:         &struct{}{},
				lookupEnv: func(_ string) (string, bool) { return "", false },
			},
			want:    &struct{}{},
			wantErr: nil,
		},
		{
			name: "empty env",
			args: args{
				v: &struct {
					EnvVar string `env:"ENV_VAR"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "", false },
			},
			want:    nil,
			wantErr: envstruct.ErrEnvNotSet,
		},
		{
			name: "env is set",
			args: args{
				v: &struct {
					EnvVar string `env:"ENV_VAR"`
				}{},
				lookupEnv: func(name string) (string, bool) {
					if name == "ENV_VAR" {
						return "value", true
					}
					return "", false
				},
			},
			want: &struct {
				EnvVar string `env:"ENV_VAR"`
			}{EnvVar: "value"},
			wantErr: nil,
		},
		{
			name: "default value",
			args: args{
				v: &struct {
					EnvVar string `env:"ENV_VAR" envDefault:"fallback"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "", false },
			},
			want: &struct {
				EnvVar string `env:"ENV_VAR" envDefault:"fallback"`
			}{EnvVar: "fallback"},
			wantErr: nil,
		},
		{
			name: "unsupported field type",
			args: args{
				v: &struct {
					EnvVar int `env:"ENV_VAR"`
				}{},
				lookupEnv: func(name string) (string, bool) {
					if strings.HasPrefix(name, "ENV") {
						return "1", true
					}
					return "", false
				},
			},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := envstruct.Populate(tt.args.v, tt.args.lookupEnv)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, tt.args.v)
		})
	}
}
